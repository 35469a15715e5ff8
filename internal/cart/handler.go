package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rgoncalves/cartflow/internal/domain"
)

// customerHeader carries the opaque customer identifier resolved by the
// upstream authentication layer.
const customerHeader = "X-Customer-ID"

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type cartResponse struct {
	Cart  *domain.Order     `json:"cart"`
	Items []domain.CartItem `json:"items"`
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	cart, err := h.repo.GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to get or create cart", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	items, err := h.repo.ListItems(r.Context(), cart.ID)
	if err != nil {
		h.logger.Error("failed to list cart items", "error", err, "cart_id", cart.ID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	h.logger.Info("cart retrieved", "cart_id", cart.ID, "customer_id", customerID, "items", len(items))
	h.writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Items: items})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type itemResponse struct {
	Item *domain.LineItem `json:"item"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "validation", "product_id is required")
		return
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.repo.GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to get or create cart", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	item, created, err := h.repo.AddItem(r.Context(), cart.ID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrProductNotFound):
			h.writeError(w, http.StatusNotFound, "product_not_found", "product not found")
		case errors.Is(err, ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		case errors.Is(err, ErrCartNotOpen):
			h.writeError(w, http.StatusConflict, "cart_not_open", "cart was checked out, retry with the new cart")
		default:
			h.logger.Error("failed to add cart item", "error", err, "cart_id", cart.ID, "product_id", req.ProductID)
			h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	h.logger.Info("cart item added", "cart_id", cart.ID, "product_id", req.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, status, itemResponse{Item: item})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "validation", "missing product id")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	if req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	cart, err := h.repo.GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to get or create cart", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	item, err := h.repo.UpdateItemQuantity(r.Context(), cart.ID, productID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			h.writeError(w, http.StatusNotFound, "item_not_found", "cart item not found")
		case errors.Is(err, ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		default:
			h.logger.Error("failed to update cart item", "error", err, "cart_id", cart.ID, "product_id", productID)
			h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		}
		return
	}

	h.logger.Info("cart item updated", "cart_id", cart.ID, "product_id", productID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusOK, itemResponse{Item: item})
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		h.writeError(w, http.StatusBadRequest, "validation", "missing product id")
		return
	}

	cart, err := h.repo.GetOrCreate(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to get or create cart", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	if err := h.repo.RemoveItem(r.Context(), cart.ID, productID); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, "item_not_found", "cart item not found")
			return
		}
		h.logger.Error("failed to remove cart item", "error", err, "cart_id", cart.ID, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	h.logger.Info("cart item removed", "cart_id", cart.ID, "product_id", productID)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{"error": message, "code": code})
}
