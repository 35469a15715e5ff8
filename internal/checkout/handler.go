package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rgoncalves/cartflow/internal/inventory"
	"github.com/rgoncalves/cartflow/internal/payment"
)

const customerHeader = "X-Customer-ID"

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	result, err := h.service.Checkout(r.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCartNotFound):
			h.writeError(w, http.StatusNotFound, "cart_not_found", "cart not found")
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "empty_cart", "cannot checkout empty cart")
		case errors.Is(err, payment.ErrDeclined):
			h.writeError(w, http.StatusPaymentRequired, "payment_declined", "payment declined")
		case errors.Is(err, inventory.ErrInsufficientStock):
			h.writeError(w, http.StatusConflict, "insufficient_stock", "insufficient stock for some items")
		default:
			h.logger.Error("checkout failed", "error", err, "customer_id", customerID)
			h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		}
		return
	}

	h.logger.Info("checkout completed",
		"order_id", result.Order.ID,
		"customer_id", customerID,
		"total", result.Order.Total,
		"new_cart_id", result.NewCartID,
	)
	h.writeJSON(w, http.StatusOK, result)
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
