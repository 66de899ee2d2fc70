package handler

import (
	"encoding/json"
	"net/http"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type DLQHandler struct {
	service service.DLQService
	logger  zerolog.Logger
}

func NewDLQHandler(s service.DLQService, l zerolog.Logger) *DLQHandler {
	return &DLQHandler{service: s, logger: l}
}

func (h *DLQHandler) RegisterRoutes(r chi.Router) {
	r.Post("/dlq/record", h.recordDLQ)
}

// recordDLQ godoc
// @Summary Record a dead-lettered Pub/Sub message
// @Description Push endpoint of the dead-letter subscription. Authenticated with a Google-signed OIDC token.
// @Tags dlq
// @Accept json
// @Param message body dto.PubSubPushRequest true "Pub/Sub push envelope"
// @Success 204
// @Failure 400 {string} string "Invalid Pub/Sub message format"
// @Router /dlq/record [post]
func (h *DLQHandler) recordDLQ(w http.ResponseWriter, r *http.Request) {
	var req dto.PubSubPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message.MessageID == "" {
		http.Error(w, "Invalid Pub/Sub message format: missing message ID", http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("messageId", req.Message.MessageID).
		Str("subscription", req.Subscription).
		Msg("Processing dead-letter queue message")

	if err := h.service.ProcessAndSave(r.Context(), &req); err != nil {
		// Pub/Sub must not redeliver a message that is already dead-lettered.
		h.logger.Error().Err(err).Msg("Failed to save DLQ message to database")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Info().
		Str("messageId", req.Message.MessageID).
		Msg("Successfully processed and saved DLQ message")
	w.WriteHeader(http.StatusNoContent)
}
