package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/gmarques/go-products-api/internal/api/auth"
	"github.com/gmarques/go-products-api/internal/api/inventory"
	"github.com/gmarques/go-products-api/internal/api/product"
	"github.com/gmarques/go-products-api/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	ProductHandler         *product.ProductHandler
	InventoryHandler       *inventory.InventoryHandler
	UserHandler            *user.UserHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Public routes, no token required. The catalog and the user directory
	// are open; only login issues tokens.
	r.Group(func(r chi.Router) {
		r.Post("/auth/token", cfg.AuthHandler.Login)

		r.Post("/products", cfg.ProductHandler.CreateProduct)
		r.Get("/products", cfg.ProductHandler.ListProducts)
		r.Get("/products/{productID}", cfg.ProductHandler.GetProduct)
		r.Put("/products/{productID}", cfg.ProductHandler.ReplaceProduct)
		r.Delete("/products/{productID}", cfg.ProductHandler.DeleteProduct)

		r.Post("/users", cfg.UserHandler.CreateUser)
		r.Get("/users", cfg.UserHandler.ListUsers)
		r.Get("/users/{userID}", cfg.UserHandler.GetUser)
	})

	// Protected routes. Inventory is always scoped to the token's user and
	// account mutations require the owner.
	r.Group(func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Post("/inventory", cfg.InventoryHandler.AddItem)
		r.Get("/inventory", cfg.InventoryHandler.ListItems)
		r.Get("/inventory/{productID}", cfg.InventoryHandler.GetItem)
		r.Put("/inventory/{productID}", cfg.InventoryHandler.UpdateQuantity)

		r.Patch("/users/{userID}", cfg.UserHandler.UpdateUser)
		r.Delete("/users/{userID}", cfg.UserHandler.DeleteUser)
	})

	return r
}
