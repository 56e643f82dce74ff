package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"opssight/internal/engine/webhooks"
	"opssight/internal/pkg/errors"
	"opssight/internal/platform/repositories"
)

type WebhookHandler struct {
	processor  *webhooks.Processor
	deliveries *repositories.DeliveryRepository
}

func NewWebhookHandler(processor *webhooks.Processor, deliveries *repositories.DeliveryRepository) *WebhookHandler {
	return &WebhookHandler{processor: processor, deliveries: deliveries}
}

// ReceiveGitHub accepts a GitHub webhook delivery. The processor absorbs
// every failure into the result; only a rejected signature maps to 401 so
// GitHub surfaces the misconfiguration, everything else is acknowledged.
func (h *WebhookHandler) ReceiveGitHub(w http.ResponseWriter, r *http.Request) {
	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing X-GitHub-Event header", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	result := h.processor.Process(r.Context(), eventType, body, signature)

	status := http.StatusOK
	if !result.Success && result.Message == "Invalid webhook signature" {
		status = http.StatusUnauthorized
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(result)
}

func (h *WebhookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.processor.Stats())
}

func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries, err := h.deliveries.ListRecent(100)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deliveries)
}
