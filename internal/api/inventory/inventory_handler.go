package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gmarques/go-products-api/internal/api"
	"github.com/gmarques/go-products-api/internal/api/auth"
)

type InventoryHandler struct {
	inventoryService InventoryService
	logger           *slog.Logger
	defaultLimit     int
}

func NewInventoryHandler(inventoryService InventoryService, defaultLimit int, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
		defaultLimit:     defaultLimit,
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrBadRequest):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, api.ErrConflict):
		api.ErrorResponse(w, r, http.StatusConflict, "Product already in inventory")
	default:
		h.logger.ErrorContext(r.Context(), "Inventory operation failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// caller extracts the authenticated user placed on the context by the auth
// middleware. Handlers on the protected group can rely on it being present.
func (h *InventoryHandler) caller(w http.ResponseWriter, r *http.Request) (*api.User, bool) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return nil, false
	}
	return user, true
}

// AddItem handles POST /inventory. The entry is always created for the
// authenticated caller; the body names only the product and quantity.
func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req api.AddInventoryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.inventoryService.AddItem(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, entry)
}

// ListItems handles GET /inventory.
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	offset, limit := api.ParsePagination(r, h.defaultLimit)

	items, err := h.inventoryService.ListItems(r.Context(), user.ID, offset, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.InventoryListResponse{Items: items})
}

// GetItem handles GET /inventory/{productID}.
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID")
		return
	}

	item, err := h.inventoryService.GetItem(r.Context(), user.ID, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, item)
}

// UpdateQuantity handles PUT /inventory/{productID}.
func (h *InventoryHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req api.UpdateInventoryQuantityRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "quantity is required")
		return
	}

	item, err := h.inventoryService.UpdateQuantity(r.Context(), user.ID, productID, *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, item)
}
