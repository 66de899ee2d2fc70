package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topic   string
	payload []byte
	attrs   map[string]string
	err     error
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	r.topic, r.payload, r.attrs = topic, payload, attrs
	return "msg-1", r.err
}

func TestNewPublisherInvalidProject(t *testing.T) {
	_, err := NewPublisher(context.Background(), Options{})
	assert.Error(t, err)
}

func TestEmitter_Emit(t *testing.T) {
	rec := &recordingPublisher{}
	e := NewEmitter(rec, "backoffice-events")
	e.now = func() time.Time { return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC) }

	err := e.Emit(context.Background(), EventInvoiceGenerated, map[string]string{"invoice_id": "inv-1"})
	require.NoError(t, err)

	assert.Equal(t, "backoffice-events", rec.topic)
	assert.Equal(t, EventInvoiceGenerated, rec.attrs["event_type"])

	var ev Event
	require.NoError(t, json.Unmarshal(rec.payload, &ev))
	assert.Equal(t, EventInvoiceGenerated, ev.Type)
	assert.NotEmpty(t, ev.ID)
	assert.JSONEq(t, `{"invoice_id":"inv-1"}`, string(ev.Data))
}

func TestEmitter_PublishError(t *testing.T) {
	e := NewEmitter(&recordingPublisher{err: errors.New("unavailable")}, "t")
	assert.Error(t, e.Emit(context.Background(), EventFormSubmitted, struct{}{}))
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, NewEmitter(NopPublisher{}, "t").Emit(context.Background(), EventFormSubmitted, nil))
}

func TestPublishWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	pub, err := NewPublisher(ctx, Options{ProjectID: "test-project", EmulatorHost: emulator})
	require.NoError(t, err)
	defer pub.Close()

	topic, err := pub.client.CreateTopic(ctx, "backoffice-events-test")
	require.NoError(t, err)
	sub, err := pub.client.CreateSubscription(ctx, "backoffice-events-test-sub", ps.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	require.NoError(t, NewEmitter(pub, "backoffice-events-test").Emit(ctx, EventFormSubmitted, map[string]string{"id": "sub-1"}))

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	received := make(chan *ps.Message, 1)
	go func() {
		_ = sub.Receive(recvCtx, func(_ context.Context, m *ps.Message) {
			m.Ack()
			received <- m
			cancel()
		})
	}()

	select {
	case m := <-received:
		assert.Equal(t, EventFormSubmitted, m.Attributes["event_type"])
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
