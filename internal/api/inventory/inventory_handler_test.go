package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gmarques/go-products-api/internal/api"
	"github.com/gmarques/go-products-api/internal/api/auth"
)

// MockInventoryService is a mock implementation of the InventoryService interface
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) AddItem(ctx context.Context, userID int64, req api.AddInventoryRequest) (*api.InventoryEntry, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.InventoryEntry), args.Error(1)
}

func (m *MockInventoryService) GetItem(ctx context.Context, userID, productID int64) (*api.InventoryItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context, userID int64, offset, limit int) ([]api.InventoryItem, error) {
	args := m.Called(ctx, userID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryItem, error) {
	args := m.Called(ctx, userID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.InventoryItem), args.Error(1)
}

func newTestRouter(handler *InventoryHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/inventory", handler.AddItem)
	r.Get("/inventory", handler.ListItems)
	r.Get("/inventory/{productID}", handler.GetItem)
	r.Put("/inventory/{productID}", handler.UpdateQuantity)
	return r
}

// asUser stamps the request context the way the auth middleware would.
func asUser(req *http.Request, user *api.User) *http.Request {
	return req.WithContext(auth.WithCurrentUser(req.Context(), user))
}

func TestAddItemHandler(t *testing.T) {
	caller := &api.User{ID: 7, Username: "johndoe"}

	t.Run("Created", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		entry := &api.InventoryEntry{UserID: 7, ProductID: 1, Quantity: 2}
		mockService.On("AddItem", mock.Anything, int64(7), api.AddInventoryRequest{ProductID: 1, Quantity: intPtr(2)}).
			Return(entry, nil).Once()

		body := []byte(`{"product_id": 1, "quantity": 2}`)
		req := asUser(httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var got api.InventoryEntry
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, int64(7), got.UserID)
		mockService.AssertExpectations(t)
	})

	t.Run("BodyCannotNameAnotherUser", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		// user_id is not part of the request schema and is rejected outright.
		body := []byte(`{"product_id": 1, "user_id": 99}`)
		req := asUser(httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "AddItem")
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		mockService.On("AddItem", mock.Anything, int64(7), api.AddInventoryRequest{ProductID: 404}).
			Return(nil, fmt.Errorf("product 404 not found: %w", api.ErrNotFound)).Once()

		body := []byte(`{"product_id": 404}`)
		req := asUser(httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicatePair", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		mockService.On("AddItem", mock.Anything, int64(7), api.AddInventoryRequest{ProductID: 1}).
			Return(nil, fmt.Errorf("product 1 already in inventory: %w", api.ErrConflict)).Once()

		body := []byte(`{"product_id": 1}`)
		req := asUser(httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("NoAuthenticatedUser", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		body := []byte(`{"product_id": 1}`)
		req := httptest.NewRequest(http.MethodPost, "/inventory", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "AddItem")
	})
}

func TestListItemsHandler(t *testing.T) {
	caller := &api.User{ID: 7, Username: "johndoe"}

	mockService := new(MockInventoryService)
	router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

	items := []api.InventoryItem{
		{ProductID: 1, Quantity: 3, Name: "Wireless Mouse", Brand: "Acme", Price: 19.99, Type: api.ProductTypeElectronics},
	}
	mockService.On("ListItems", mock.Anything, int64(7), 0, 100).Return(items, nil).Once()

	req := asUser(httptest.NewRequest(http.MethodGet, "/inventory", nil), caller)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp api.InventoryListResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, "Wireless Mouse", resp.Items[0].Name)
	mockService.AssertExpectations(t)
}

func TestUpdateQuantityHandler(t *testing.T) {
	caller := &api.User{ID: 7, Username: "johndoe"}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		item := &api.InventoryItem{ProductID: 1, Quantity: 5, Name: "Wireless Mouse", Brand: "Acme", Price: 19.99, Type: api.ProductTypeElectronics}
		mockService.On("UpdateQuantity", mock.Anything, int64(7), int64(1), 5).Return(item, nil).Once()

		body := []byte(`{"quantity": 5}`)
		req := asUser(httptest.NewRequest(http.MethodPut, "/inventory/1", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		// The response carries the joined product view, not the bare entry.
		var got api.InventoryItem
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 5, got.Quantity)
		assert.Equal(t, "Wireless Mouse", got.Name)
		assert.Equal(t, "Acme", got.Brand)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingQuantity", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		body := []byte(`{}`)
		req := asUser(httptest.NewRequest(http.MethodPut, "/inventory/1", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "UpdateQuantity")
	})

	t.Run("NotHeld", func(t *testing.T) {
		mockService := new(MockInventoryService)
		router := newTestRouter(NewInventoryHandler(mockService, 100, slog.Default()))

		mockService.On("UpdateQuantity", mock.Anything, int64(7), int64(404), 5).
			Return(nil, fmt.Errorf("product 404 not in inventory: %w", api.ErrNotFound)).Once()

		body := []byte(`{"quantity": 5}`)
		req := asUser(httptest.NewRequest(http.MethodPut, "/inventory/404", bytes.NewReader(body)), caller)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func intPtr(v int) *int { return &v }
