package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceRouter(svc *stubInvoices) *chi.Mux {
	h := NewInvoiceHandler(svc, newValidator(), zerolog.Nop())
	return newRouter(h.RegisterRoutes)
}

func TestInvoiceHandler_Generate(t *testing.T) {
	svc := &stubInvoices{inv: sampleInvoice()}
	rec := httptest.NewRecorder()
	body := `{"billing_type":"monthly","issue_date":"2025-04-10T00:00:00+09:00"}`
	invoiceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/cust-1/invoices", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invoice_number":"INV-202504-0001"`)
	assert.Equal(t, time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC), svc.issueDate.UTC())
}

func TestInvoiceHandler_Generate_RejectsUnknownBillingType(t *testing.T) {
	rec := httptest.NewRecorder()
	invoiceRouter(&stubInvoices{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/cust-1/invoices", strings.NewReader(`{"billing_type":"weekly"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoiceHandler_Generate_MailFailureReturnsDraft(t *testing.T) {
	svc := &stubInvoices{inv: sampleInvoice(), err: fmt.Errorf("%w: postmark down", mail.ErrFailedToSendEmail)}
	rec := httptest.NewRecorder()
	body := `{"billing_type":"yearly","send_email":true}`
	invoiceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers/cust-1/invoices", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"draft"`)
}

func TestInvoiceHandler_Document(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		err         error
		status      int
		contentType string
	}{
		{"text", "", nil, http.StatusOK, "text/plain; charset=utf-8"},
		{"html", "?format=html", nil, http.StatusOK, "text/html; charset=utf-8"},
		{"url", "?format=url", nil, http.StatusOK, "application/json"},
		{"url without storage", "?format=url", service.ErrNotConfigured, http.StatusServiceUnavailable, ""},
		{"unknown format", "?format=pdf", fmt.Errorf("%w: unknown document format", service.ErrInvalidInput), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubInvoices{body: "請求書", err: tt.err}
			rec := httptest.NewRecorder()
			invoiceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/inv-1/document"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestInvoiceHandler_Send_InvalidTransition(t *testing.T) {
	svc := &stubInvoices{err: fmt.Errorf("%w: paid -> sent", billing.ErrInvalidTransition)}
	rec := httptest.NewRecorder()
	invoiceRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invoices/inv-1/send", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvoiceHandler_ChangeStatus(t *testing.T) {
	svc := &stubInvoices{inv: sampleInvoice()}
	r := invoiceRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/invoices/inv-1/status", strings.NewReader(`{"status":"paid"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.InvoiceStatusPaid, svc.inv.Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/invoices/inv-1/status", strings.NewReader(`{"status":"sent"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
