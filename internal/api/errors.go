package api

import "errors"

// Domain sentinel errors. Repositories and services wrap these with context;
// handlers translate them to HTTP status codes with errors.Is.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthorized    = errors.New("not enough permissions")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrBadRequest      = errors.New("invalid request")
)
