package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/rs/zerolog"
)

const dlqStatusUnprocessed = "unprocessed"

// DLQService records messages that could not be delivered.
type DLQService interface {
	// ProcessAndSave stores a message pushed by a Pub/Sub dead-letter subscription.
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
	// Record stores a job that a worker gave up on.
	Record(ctx context.Context, source, messageID string, payload []byte, reason string) error
}

type dlqService struct {
	repo   repository.DLQRepository
	logger zerolog.Logger
}

func NewDLQService(repo repository.DLQRepository, logger zerolog.Logger) DLQService {
	return &dlqService{
		repo:   repo,
		logger: logger.With().Str("service", "DLQService").Logger(),
	}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	payload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		// Keep what we received.
		payload = []byte(req.Message.Data)
	}

	var attributes *string
	if len(req.Message.Attributes) > 0 {
		if raw, err := json.Marshal(req.Message.Attributes); err == nil {
			str := string(raw)
			attributes = &str
		}
	}

	reason := "delivery attempts exhausted"
	if t, ok := req.Message.Attributes["event_type"]; ok {
		reason = fmt.Sprintf("%s: %s", reason, t)
	}

	msg := &model.DeadLetterMessage{
		Source:     req.Subscription,
		MessageID:  req.Message.MessageID,
		Payload:    string(payload),
		Attributes: attributes,
		Reason:     reason,
		Status:     dlqStatusUnprocessed,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("message_id", req.Message.MessageID).Msg("Failed to save dead-letter message")
		return err
	}
	return nil
}

func (s *dlqService) Record(ctx context.Context, source, messageID string, payload []byte, reason string) error {
	msg := &model.DeadLetterMessage{
		Source:    source,
		MessageID: messageID,
		Payload:   string(payload),
		Reason:    reason,
		Status:    dlqStatusUnprocessed,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("source", source).Str("message_id", messageID).Msg("Failed to save dead-letter message")
		return err
	}
	s.logger.Warn().Str("source", source).Str("message_id", messageID).Str("reason", reason).Msg("Message moved to dead-letter table")
	return nil
}
