package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gmarques/go-products-api/internal/api"
)

var _ InventoryService = (*InventoryServiceImpl)(nil)

// InventoryService defines inventory operations for the authenticated user.
// The owner is always the caller; there is no way to address another user's
// inventory through this interface.
type InventoryService interface {
	AddItem(ctx context.Context, userID int64, req api.AddInventoryRequest) (*api.InventoryEntry, error)
	GetItem(ctx context.Context, userID, productID int64) (*api.InventoryItem, error)
	ListItems(ctx context.Context, userID int64, offset, limit int) ([]api.InventoryItem, error)
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryItem, error)
}

type InventoryServiceImpl struct {
	logger *slog.Logger
	repo   InventoryRepo
}

func NewInventoryService(repo InventoryRepo, logger *slog.Logger) *InventoryServiceImpl {
	return &InventoryServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *InventoryServiceImpl) AddItem(ctx context.Context, userID int64, req api.AddInventoryRequest) (*api.InventoryEntry, error) {
	if req.ProductID <= 0 {
		return nil, fmt.Errorf("product_id is required: %w", api.ErrBadRequest)
	}

	// Omitted quantity means one unit.
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", api.ErrBadRequest)
	}

	return s.repo.AddItem(ctx, userID, req.ProductID, quantity)
}

func (s *InventoryServiceImpl) GetItem(ctx context.Context, userID, productID int64) (*api.InventoryItem, error) {
	return s.repo.GetItem(ctx, userID, productID)
}

func (s *InventoryServiceImpl) ListItems(ctx context.Context, userID int64, offset, limit int) ([]api.InventoryItem, error) {
	return s.repo.ListItems(ctx, userID, offset, limit)
}

func (s *InventoryServiceImpl) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryItem, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", api.ErrBadRequest)
	}
	return s.repo.UpdateQuantity(ctx, userID, productID, quantity)
}
