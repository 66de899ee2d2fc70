package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/service"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrCustomerNotFound, http.StatusNotFound},
		{fmt.Errorf("get: %w", service.ErrInvoiceNotFound), http.StatusNotFound},
		{service.ErrVersionConflict, http.StatusConflict},
		{service.ErrInvalidInput, http.StatusBadRequest},
		{billing.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{service.ErrInvoiceSettled, http.StatusUnprocessableEntity},
		{mail.ErrFailedToSendEmail, http.StatusBadGateway},
		{service.ErrNotConfigured, http.StatusServiceUnavailable},
		{errBoom, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}
