package product

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gmarques/go-products-api/internal/api"
)

var _ ProductService = (*ProductServiceImpl)(nil)

// ProductService defines the catalog business operations.
type ProductService interface {
	CreateProduct(ctx context.Context, params api.CreateProductRequest) (*api.Product, error)
	GetProduct(ctx context.Context, productID int64) (*api.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]api.Product, error)
	ReplaceProduct(ctx context.Context, productID int64, params api.CreateProductRequest) (*api.Product, error)
	DeleteProduct(ctx context.Context, productID int64) (*api.Product, error)
}

type ProductServiceImpl struct {
	logger *slog.Logger
	repo   ProductRepo
}

func NewProductService(repo ProductRepo, logger *slog.Logger) *ProductServiceImpl {
	return &ProductServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func validateProductParams(params api.CreateProductRequest) error {
	if params.Name == "" {
		return fmt.Errorf("product name is required: %w", api.ErrBadRequest)
	}
	if params.Brand == "" {
		return fmt.Errorf("product brand is required: %w", api.ErrBadRequest)
	}
	if params.Price < 0 {
		return fmt.Errorf("product price cannot be negative: %w", api.ErrBadRequest)
	}
	if !params.Type.Valid() {
		return fmt.Errorf("unknown product type %q: %w", params.Type, api.ErrBadRequest)
	}
	return nil
}

func (s *ProductServiceImpl) CreateProduct(ctx context.Context, params api.CreateProductRequest) (*api.Product, error) {
	if err := validateProductParams(params); err != nil {
		return nil, err
	}
	return s.repo.CreateProduct(ctx, params)
}

func (s *ProductServiceImpl) GetProduct(ctx context.Context, productID int64) (*api.Product, error) {
	return s.repo.GetProductByID(ctx, productID)
}

func (s *ProductServiceImpl) ListProducts(ctx context.Context, offset, limit int) ([]api.Product, error) {
	return s.repo.ListProducts(ctx, offset, limit)
}

func (s *ProductServiceImpl) ReplaceProduct(ctx context.Context, productID int64, params api.CreateProductRequest) (*api.Product, error) {
	if err := validateProductParams(params); err != nil {
		return nil, err
	}
	return s.repo.ReplaceProduct(ctx, productID, params)
}

func (s *ProductServiceImpl) DeleteProduct(ctx context.Context, productID int64) (*api.Product, error) {
	product, err := s.repo.DeleteProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Product removed from catalog",
		slog.Int64("productID", product.ID), slog.String("name", product.Name))
	return product, nil
}
