package handler

import (
	"context"
	"time"

	"backoffice/internal/api/v1/dto"
	"backoffice/internal/billing"
	"backoffice/internal/model"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var version = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

type stubCustomers struct {
	service.CustomerService
	filter   model.CustomerFilter
	updated  *model.Customer
	version  time.Time
	err      error
	customer *model.Customer
}

func (s *stubCustomers) List(_ context.Context, f model.CustomerFilter) ([]model.Customer, error) {
	s.filter = f
	if s.err != nil {
		return nil, s.err
	}
	return []model.Customer{*s.customer}, nil
}

func (s *stubCustomers) Get(context.Context, string) (*model.Customer, error) {
	return s.customer, s.err
}

func (s *stubCustomers) Update(_ context.Context, c *model.Customer, v time.Time) (*model.Customer, error) {
	s.updated, s.version = c, v
	if s.err != nil {
		return nil, s.err
	}
	return c, nil
}

func (s *stubCustomers) Quote(_ context.Context, _ string, bt model.BillingType) (*billing.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &billing.Quote{BillingType: bt}, nil
}

type stubInvoices struct {
	service.InvoiceService
	inv       *model.Invoice
	err       error
	issueDate time.Time
	format    string
	body      string
}

func (s *stubInvoices) Generate(_ context.Context, _ string, _ model.BillingType, issueDate time.Time, _ bool) (*model.Invoice, error) {
	s.issueDate = issueDate
	return s.inv, s.err
}

func (s *stubInvoices) Document(_ context.Context, _ string, format string) (string, error) {
	s.format = format
	return s.body, s.err
}

func (s *stubInvoices) DocumentURL(context.Context, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://s3.example/invoices/doc.html", nil
}

func (s *stubInvoices) Send(context.Context, string) (*model.Invoice, error) {
	return s.inv, s.err
}

func (s *stubInvoices) ChangeStatus(_ context.Context, _ string, status model.InvoiceStatus) (*model.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.inv.Status = status
	return s.inv, nil
}

type stubForms struct {
	service.FormSubmissionService
	submitted *model.FormSubmission
	customer  *model.Customer
	err       error
}

func (s *stubForms) Submit(_ context.Context, sub *model.FormSubmission) (*model.FormSubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	sub.ID = "sub-1"
	sub.Status = model.SubmissionStatusNew
	s.submitted = sub
	return sub, nil
}

func (s *stubForms) Convert(context.Context, string) (*model.Customer, error) {
	return s.customer, s.err
}

type stubDLQ struct {
	got *dto.PubSubPushRequest
	err error
}

func (s *stubDLQ) ProcessAndSave(_ context.Context, req *dto.PubSubPushRequest) error {
	s.got = req
	return s.err
}

func (s *stubDLQ) Record(context.Context, string, string, []byte, string) error { return s.err }

func sampleCustomer() *model.Customer {
	return &model.Customer{
		ID:                 "cust-1",
		Email:              "info@sakura.example",
		Organization:       "さくら病院",
		Status:             model.CustomerStatusActive,
		SubscriptionMonths: 12,
		RegisteredAt:       version,
		ExpiresAt:          version.AddDate(1, 0, 0),
		UpdatedAt:          version,
	}
}

func sampleInvoice() *model.Invoice {
	return &model.Invoice{
		ID:            "inv-1",
		CustomerID:    "cust-1",
		InvoiceNumber: "INV-202504-0001",
		BillingType:   model.BillingTypeMonthly,
		Subtotal:      20000,
		TaxAmount:     2000,
		TotalAmount:   22000,
		Status:        model.InvoiceStatusDraft,
	}
}

func newRouter(register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	register(r)
	return r
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
