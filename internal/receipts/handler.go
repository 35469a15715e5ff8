package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rgoncalves/cartflow/internal/domain"
)

// Handler turns order.completed events into receipt emails. Checkout has
// already committed by the time an event arrives, so a failure here never
// affects the order; the consumer redelivers and we try again.
type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order completed event: %w", err)
	}

	h.logger.Info("processing order completed event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	if err := h.sendReceipt(ctx, event); err != nil {
		h.logger.Error("failed to send receipt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt: %w", err)
	}

	h.logger.Info("receipt sent", "order_id", event.OrderID, "customer_id", event.CustomerID)
	return nil
}

func (h *Handler) sendReceipt(ctx context.Context, event domain.OrderCompletedEvent) error {
	body := map[string]string{
		"to":      event.CustomerID + "@example.com",
		"subject": "Receipt for order " + event.OrderID,
		"body": fmt.Sprintf("Thank you for your purchase. Order %s: %d items, total %s.",
			event.OrderID, len(event.Items), formatAmount(event.Total)),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
