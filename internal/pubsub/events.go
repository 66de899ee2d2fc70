package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published on the events topic.
const (
	EventFormSubmitted        = "form.submitted"
	EventCustomerConverted    = "customer.converted"
	EventInvoiceGenerated     = "invoice.generated"
	EventInvoiceStatusChanged = "invoice.status_changed"
	EventAccountExpired       = "account.expired"
)

// Event is the envelope of every domain event.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Emitter wraps a Publisher with the events topic and envelope encoding.
type Emitter struct {
	publisher Publisher
	topic     string
	now       func() time.Time
}

// NewEmitter publishes events to topic.
func NewEmitter(publisher Publisher, topic string) *Emitter {
	return &Emitter{publisher: publisher, topic: topic, now: time.Now}
}

// Emit publishes one event. The type is also set as the event_type attribute
// so subscriptions can filter on it.
func (e *Emitter) Emit(ctx context.Context, eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	payload, err := json.Marshal(Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: e.now().UTC(),
		Data:       raw,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}
	if _, err := e.publisher.Publish(ctx, e.topic, payload, map[string]string{"event_type": eventType}); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
