package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

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

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	orders, err := h.repo.List(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	h.logger.Info("orders listed", "customer_id", customerID, "count", len(orders))
	h.writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	customerID := r.Header.Get(customerHeader)
	if customerID == "" {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "missing customer identity")
		return
	}

	orderID := r.PathValue("id")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "validation", "missing order id")
		return
	}

	detail, err := h.repo.GetByID(r.Context(), customerID, orderID)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	if detail == nil {
		h.writeError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}

	h.logger.Info("order retrieved", "order_id", orderID, "customer_id", customerID)
	h.writeJSON(w, http.StatusOK, detail)
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
