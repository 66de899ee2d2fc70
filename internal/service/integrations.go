package service

import (
	"context"

	"backoffice/internal/model"
)

// DocumentStore keeps rendered invoice documents.
type DocumentStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// CredentialVault stores seat login credentials outside the database.
type CredentialVault interface {
	Store(ctx context.Context, accountID, secret string) error
	Reveal(ctx context.Context, accountID string) (string, error)
	Delete(ctx context.Context, accountID string) error
}

// PaymentGateway collects card payments.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, c *model.Customer) (string, error)
	CreatePaymentLink(ctx context.Context, inv *model.Invoice, c *model.Customer) (string, error)
}

// JobQueue enqueues background jobs.
type JobQueue interface {
	Send(ctx context.Context, queue string, payload []byte) (int64, error)
}

// EventEmitter publishes domain events.
type EventEmitter interface {
	Emit(ctx context.Context, eventType string, data any) error
}

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, string, any) error { return nil }
