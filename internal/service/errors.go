package service

import (
	"errors"

	"backoffice/internal/repository"
)

var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrSubmissionNotFound = errors.New("form submission not found")

	ErrAlreadyConverted = errors.New("form submission already converted")
	ErrInvoiceSettled   = errors.New("invoice already paid")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotConfigured    = errors.New("integration not configured")
	ErrNoDocument       = errors.New("invoice document not available")

	// ErrVersionConflict is returned when a record changed since the caller read it.
	ErrVersionConflict = repository.ErrVersionConflict
)
