package pubsub

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error)
}

// Options selects the project and how to reach Pub/Sub.
type Options struct {
	ProjectID       string
	CredentialsFile string
	EmulatorHost    string
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a Pub/Sub client. With an emulator host set, the
// client connects without authentication.
func NewPublisher(ctx context.Context, o Options) (*PubSubPublisher, error) {
	if o.ProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	var opts []option.ClientOption
	switch {
	case o.EmulatorHost != "":
		opts = append(opts, option.WithEndpoint(o.EmulatorHost), option.WithoutAuthentication())
	case o.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, o.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	result := p.client.Topic(topic).Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

// Close flushes pending messages and releases the client.
func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}

// NopPublisher drops every message. It is used when no GCP project is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}
