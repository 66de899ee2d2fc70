package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/pubsub"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Document formats served by InvoiceService.Document.
const (
	FormatText = "text"
	FormatHTML = "html"
)

// InvoiceJob is the payload of an e-mail dispatch job.
type InvoiceJob struct {
	InvoiceID string `json:"invoice_id"`
}

// InvoiceService generates invoices and drives them through their lifecycle.
type InvoiceService interface {
	// Generate assembles and stores a draft invoice. When sendEmail is set the
	// e-mail is queued, or sent inline when no queue is configured; an inline
	// failure returns the stored draft together with the error.
	Generate(ctx context.Context, customerID string, billingType model.BillingType, issueDate time.Time, sendEmail bool) (*model.Invoice, error)
	Get(ctx context.Context, id string) (*model.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error)
	Document(ctx context.Context, id, format string) (string, error)
	DocumentURL(ctx context.Context, id string) (string, error)

	// Send e-mails a draft invoice and marks it sent.
	Send(ctx context.Context, id string) (*model.Invoice, error)
	ChangeStatus(ctx context.Context, id string, status model.InvoiceStatus) (*model.Invoice, error)
	MarkPaid(ctx context.Context, id string) (*model.Invoice, error)
	CreatePaymentLink(ctx context.Context, id string) (string, error)

	// MarkOverdue moves sent invoices past their due date to overdue and
	// returns how many were changed.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

// InvoiceServiceDeps collects the collaborators of InvoiceService. Store,
// Payments and Queue are optional.
type InvoiceServiceDeps struct {
	Invoices  repository.InvoiceRepository
	Customers repository.CustomerRepository
	Accounts  repository.AccountRepository
	Company   CompanyService
	Sender    mail.EmailSender
	Store     DocumentStore
	Payments  PaymentGateway
	Queue     JobQueue
	QueueName string
	Events    EventEmitter
	Metrics   *metrics.Metrics
}

type invoiceService struct {
	InvoiceServiceDeps
	logger zerolog.Logger
	now    func() time.Time
}

// NewInvoiceService creates an InvoiceService.
func NewInvoiceService(deps InvoiceServiceDeps, logger zerolog.Logger) InvoiceService {
	if deps.Events == nil {
		deps.Events = nopEmitter{}
	}
	return &invoiceService{
		InvoiceServiceDeps: deps,
		logger:             logger.With().Str("service", "InvoiceService").Logger(),
		now:                time.Now,
	}
}

func (s *invoiceService) invoice(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := s.Invoices.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to get invoice")
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *invoiceService) document(ctx context.Context, inv *model.Invoice) (billing.Document, error) {
	c, err := loadCustomer(ctx, s.Customers, s.Accounts, inv.CustomerID)
	if err != nil {
		return billing.Document{}, err
	}
	info, err := s.Company.Get(ctx)
	if err != nil {
		return billing.Document{}, err
	}
	return billing.Document{Invoice: inv, Customer: c, Company: info}, nil
}

func (s *invoiceService) emitStatus(ctx context.Context, eventType string, inv *model.Invoice) {
	err := s.Events.Emit(ctx, eventType, map[string]any{
		"invoice_id":     inv.ID,
		"customer_id":    inv.CustomerID,
		"invoice_number": inv.InvoiceNumber,
		"status":         inv.Status,
		"total_amount":   inv.TotalAmount,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("invoice_id", inv.ID).Str("event", eventType).Msg("Failed to publish invoice event")
	}
}

// upload renders the HTML document and stores it. It returns the key, or an
// empty string when no store is configured.
func (s *invoiceService) upload(ctx context.Context, d billing.Document) (string, error) {
	if s.Store == nil {
		return "", nil
	}
	body, err := billing.RenderHTML(d)
	if err != nil {
		return "", err
	}
	key := invoiceDocumentKey(d.Invoice.CustomerID, d.Invoice.InvoiceNumber)
	if err := s.Store.Put(ctx, key, "text/html; charset=utf-8", []byte(body)); err != nil {
		return "", err
	}
	if err := s.Invoices.SetDocumentKey(ctx, d.Invoice.ID, key); err != nil {
		return "", err
	}
	d.Invoice.DocumentKey = &key
	return key, nil
}

func (s *invoiceService) Generate(ctx context.Context, customerID string, billingType model.BillingType, issueDate time.Time, sendEmail bool) (*model.Invoice, error) {
	if billingType != model.BillingTypeMonthly && billingType != model.BillingTypeYearly {
		return nil, fmt.Errorf("%w: unknown billing type %q", ErrInvalidInput, billingType)
	}
	c, err := loadCustomer(ctx, s.Customers, s.Accounts, customerID)
	if err != nil {
		return nil, err
	}
	info, err := s.Company.Get(ctx)
	if err != nil {
		return nil, err
	}
	if issueDate.IsZero() {
		issueDate = s.now()
	}

	inv := billing.AssembleInvoice(c, info, billingType, issueDate)
	if len(inv.Lines) == 0 {
		return nil, fmt.Errorf("%w: customer %s has no billable accounts", ErrInvalidInput, customerID)
	}
	inv.ID = uuid.NewString()
	if err := s.Invoices.Create(ctx, inv); err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("Failed to store invoice")
		return nil, err
	}
	s.Metrics.InvoiceGenerated(string(billingType))
	s.logger.Info().Str("invoice_id", inv.ID).Str("invoice_number", inv.InvoiceNumber).Int64("total", inv.TotalAmount).Msg("Invoice generated")

	if _, err := s.upload(ctx, billing.Document{Invoice: inv, Customer: c, Company: info}); err != nil {
		s.logger.Error().Err(err).Str("invoice_id", inv.ID).Msg("Failed to upload invoice document")
	}
	s.emitStatus(ctx, pubsub.EventInvoiceGenerated, inv)

	if !sendEmail {
		return inv, nil
	}
	if s.Queue != nil {
		payload, err := json.Marshal(InvoiceJob{InvoiceID: inv.ID})
		if err != nil {
			return inv, fmt.Errorf("encode invoice job: %w", err)
		}
		if _, err := s.Queue.Send(ctx, s.QueueName, payload); err != nil {
			s.logger.Error().Err(err).Str("invoice_id", inv.ID).Msg("Failed to enqueue invoice e-mail")
			return inv, fmt.Errorf("enqueue invoice %s: %w", inv.ID, err)
		}
		return inv, nil
	}
	sent, err := s.Send(ctx, inv.ID)
	if err != nil {
		return inv, err
	}
	return sent, nil
}

func (s *invoiceService) Get(ctx context.Context, id string) (*model.Invoice, error) {
	return s.invoice(ctx, id)
}

func (s *invoiceService) ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error) {
	c, err := s.Customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	invoices, err := s.Invoices.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("Failed to list invoices")
		return nil, err
	}
	return invoices, nil
}

func (s *invoiceService) Document(ctx context.Context, id, format string) (string, error) {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return "", err
	}
	d, err := s.document(ctx, inv)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatText, "":
		return billing.RenderText(d)
	case FormatHTML:
		return billing.RenderHTML(d)
	default:
		return "", fmt.Errorf("%w: unknown document format %q", ErrInvalidInput, format)
	}
}

func (s *invoiceService) DocumentURL(ctx context.Context, id string) (string, error) {
	if s.Store == nil {
		return "", ErrNotConfigured
	}
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return "", err
	}
	key := ""
	if inv.DocumentKey != nil {
		key = *inv.DocumentKey
	} else {
		d, err := s.document(ctx, inv)
		if err != nil {
			return "", err
		}
		if key, err = s.upload(ctx, d); err != nil {
			s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to upload invoice document")
			return "", fmt.Errorf("%w: %v", ErrNoDocument, err)
		}
	}
	url, err := s.Store.PresignGet(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to presign invoice document")
		return "", err
	}
	return url, nil
}

func (s *invoiceService) transition(ctx context.Context, inv *model.Invoice, to model.InvoiceStatus) (*model.Invoice, error) {
	if err := billing.CheckInvoiceTransition(inv.Status, to); err != nil {
		return nil, err
	}
	updated, err := s.Invoices.TransitionStatus(ctx, inv.ID, inv.Status, to, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", inv.ID).Str("status", string(to)).Msg("Failed to change invoice status")
		return nil, err
	}
	s.Metrics.InvoiceTransitioned(string(to))
	s.emitStatus(ctx, pubsub.EventInvoiceStatusChanged, updated)
	return updated, nil
}

func (s *invoiceService) Send(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := billing.CheckInvoiceTransition(inv.Status, model.InvoiceStatusSent); err != nil {
		return nil, err
	}
	d, err := s.document(ctx, inv)
	if err != nil {
		return nil, err
	}
	if d.Customer.Email == "" {
		return nil, fmt.Errorf("%w: customer %s has no e-mail address", ErrInvalidInput, d.Customer.ID)
	}
	if s.Payments != nil && d.Customer.PaymentMethod == model.PaymentMethodCard {
		if url, err := s.Payments.CreatePaymentLink(ctx, inv, d.Customer); err != nil {
			s.logger.Warn().Err(err).Str("invoice_id", id).Msg("Failed to create payment link, sending without it")
		} else {
			d.PaymentURL = url
		}
	}

	msg, err := mail.InvoiceMessage(d)
	if err != nil {
		return nil, err
	}
	err = s.Sender.SendEmail(ctx, msg)
	s.Metrics.EmailSent("invoice", err)
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to e-mail invoice, keeping draft")
		if !errors.Is(err, mail.ErrFailedToSendEmail) {
			err = fmt.Errorf("%w: %v", mail.ErrFailedToSendEmail, err)
		}
		return nil, fmt.Errorf("send invoice %s: %w", id, err)
	}
	return s.transition(ctx, inv, model.InvoiceStatusSent)
}

func (s *invoiceService) ChangeStatus(ctx context.Context, id string, status model.InvoiceStatus) (*model.Invoice, error) {
	if status == model.InvoiceStatusSent {
		return nil, fmt.Errorf("%w: invoices become sent only by sending them", ErrInvalidInput)
	}
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, inv, status)
}

func (s *invoiceService) MarkPaid(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceStatusPaid {
		return inv, nil
	}
	return s.transition(ctx, inv, model.InvoiceStatusPaid)
}

func (s *invoiceService) CreatePaymentLink(ctx context.Context, id string) (string, error) {
	if s.Payments == nil {
		return "", ErrNotConfigured
	}
	inv, err := s.invoice(ctx, id)
	if err != nil {
		return "", err
	}
	switch inv.Status {
	case model.InvoiceStatusPaid:
		return "", ErrInvoiceSettled
	case model.InvoiceStatusDraft:
		// A completed checkout can only settle a sent or overdue invoice.
		return "", fmt.Errorf("%w: invoice %s has not been sent yet", ErrInvalidInput, id)
	}
	c, err := s.Customers.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return "", err
	}
	if c == nil {
		return "", ErrCustomerNotFound
	}
	url, err := s.Payments.CreatePaymentLink(ctx, inv, c)
	if err != nil {
		s.logger.Error().Err(err).Str("invoice_id", id).Msg("Failed to create payment link")
		return "", err
	}
	return url, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.Invoices.ListSentPastDue(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list past due invoices")
		return 0, err
	}
	marked := 0
	for i := range candidates {
		inv := &candidates[i]
		if !billing.Overdue(inv, now) {
			continue
		}
		if _, err := s.transition(ctx, inv, model.InvoiceStatusOverdue); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return marked, err
		}
		marked++
	}
	if marked > 0 {
		s.logger.Info().Int("count", marked).Msg("Marked invoices overdue")
	}
	return marked, nil
}
