package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/mail"
	"backoffice/internal/metrics"
	"backoffice/internal/model"
	"backoffice/internal/pubsub"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoiceFixture struct {
	svc      *invoiceService
	invoices *fakeInvoices
	sender   *fakeSender
	store    *fakeStore
	gateway  *fakeGateway
	events   *fakeEmitter
	metrics  *metrics.Metrics
}

func newInvoiceFixture(t *testing.T, payment model.PaymentMethod, queue JobQueue) *invoiceFixture {
	t.Helper()
	customers := newFakeCustomers(&model.Customer{
		ID: "cust-1", Email: "info@sakura.example", Organization: "さくら病院",
		Status: model.CustomerStatusActive, PaymentMethod: payment, SubscriptionMonths: 12,
	})
	accounts := newFakeAccounts(
		model.Account{ID: "acc-1", CustomerID: "cust-1", Email: "a@sakura.example", Status: model.AccountStatusActive},
		model.Account{ID: "acc-2", CustomerID: "cust-1", Email: "b@sakura.example", Status: model.AccountStatusSuspended},
	)
	company := newCompanyService(newFakeCompany(model.Product{ID: "prod-1", Name: "ChatGPT Plus", UnitPrice: 20000, IsActive: true}), nil)

	f := &invoiceFixture{
		invoices: newFakeInvoices(),
		sender:   &fakeSender{},
		store:    newFakeStore(),
		gateway:  &fakeGateway{},
		events:   &fakeEmitter{},
		metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	}
	svc := NewInvoiceService(InvoiceServiceDeps{
		Invoices:  f.invoices,
		Customers: customers,
		Accounts:  accounts,
		Company:   company,
		Sender:    f.sender,
		Store:     f.store,
		Payments:  f.gateway,
		Queue:     queue,
		QueueName: "invoice_email_queue",
		Events:    f.events,
		Metrics:   f.metrics,
	}, zerolog.Nop()).(*invoiceService)
	svc.now = fixedNow
	f.svc = svc
	return f
}

func TestInvoiceService_Generate(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	issued := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	inv, err := f.svc.Generate(context.Background(), "cust-1", model.BillingTypeYearly, issued, false)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusDraft, inv.Status)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, int64(240000), inv.Subtotal)
	assert.Equal(t, int64(24000), inv.TaxAmount)
	assert.Equal(t, int64(264000), inv.TotalAmount)
	assert.Equal(t, issued.AddDate(0, 0, 30), inv.DueDate)
	assert.Equal(t, billing.InvoiceNumber("INV", issued), inv.InvoiceNumber)

	key := "invoices/cust-1/" + inv.InvoiceNumber + ".html"
	require.NotNil(t, inv.DocumentKey)
	assert.Equal(t, key, *inv.DocumentKey)
	assert.Contains(t, string(f.store.objects[key]), inv.InvoiceNumber)

	stored, err := f.svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DocumentKey)

	assert.Equal(t, []string{pubsub.EventInvoiceGenerated}, f.events.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.InvoicesGeneratedTotal.WithLabelValues("yearly")))
	assert.Empty(t, f.sender.sent)
}

func TestInvoiceService_Generate_Errors(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "cust-1", "weekly", time.Time{}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Generate(ctx, "missing", model.BillingTypeMonthly, time.Time{}, false)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestInvoiceService_Generate_UploadFailureKeepsInvoice(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	f.store.err = errBoom

	inv, err := f.svc.Generate(context.Background(), "cust-1", model.BillingTypeMonthly, time.Time{}, false)
	require.NoError(t, err)
	assert.Nil(t, inv.DocumentKey)
	assert.Equal(t, fixedNow(), inv.IssueDate)
	assert.Equal(t, int64(22000), inv.TotalAmount)
}

func TestInvoiceService_Generate_Enqueues(t *testing.T) {
	queue := &fakeQueue{}
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, queue)

	inv, err := f.svc.Generate(context.Background(), "cust-1", model.BillingTypeMonthly, time.Time{}, true)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "invoice_email_queue", queue.queue)
	require.Len(t, queue.payloads, 1)

	var job InvoiceJob
	require.NoError(t, json.Unmarshal(queue.payloads[0], &job))
	assert.Equal(t, inv.ID, job.InvoiceID)
	assert.Empty(t, f.sender.sent)
}

func TestInvoiceService_Generate_SendsInline(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)

	inv, err := f.svc.Generate(context.Background(), "cust-1", model.BillingTypeMonthly, time.Time{}, true)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.EmailSentAt)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "info@sakura.example", f.sender.sent[0].SendTo)
}

func TestInvoiceService_Send_FailureKeepsDraft(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	ctx := context.Background()
	inv, err := f.svc.Generate(ctx, "cust-1", model.BillingTypeMonthly, time.Time{}, false)
	require.NoError(t, err)

	f.sender.err = errBoom
	_, err = f.svc.Send(ctx, inv.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, mail.ErrFailedToSendEmail)

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusDraft, stored.Status)
	assert.Nil(t, stored.EmailSentAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EmailsTotal.WithLabelValues("invoice", "error")))

	f.sender.err = nil
	sent, err := f.svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusSent, sent.Status)

	_, err = f.svc.Send(ctx, inv.ID)
	assert.ErrorIs(t, err, billing.ErrInvalidTransition)
}

func TestInvoiceService_Send_CardIncludesPaymentLink(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodCard, nil)
	ctx := context.Background()
	inv, err := f.svc.Generate(ctx, "cust-1", model.BillingTypeMonthly, time.Time{}, true)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, 1, f.gateway.links)
	assert.True(t, strings.Contains(f.sender.sent[0].BodyHTML, "https://checkout.stripe.example/"+inv.ID))
}

func TestInvoiceService_CreatePaymentLink_RequiresSentInvoice(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodCard, nil)
	ctx := context.Background()
	inv, err := f.svc.Generate(ctx, "cust-1", model.BillingTypeMonthly, time.Time{}, false)
	require.NoError(t, err)
	require.Equal(t, model.InvoiceStatusDraft, inv.Status)

	_, err = f.svc.CreatePaymentLink(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.gateway.links)

	_, err = f.svc.Send(ctx, inv.ID)
	require.NoError(t, err)
	links := f.gateway.links

	url, err := f.svc.CreatePaymentLink(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.example/"+inv.ID, url)
	assert.Equal(t, links+1, f.gateway.links)

	paid, err := f.svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, paid.Status)
}

func TestInvoiceService_ChangeStatus(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	ctx := context.Background()
	inv, err := f.svc.Generate(ctx, "cust-1", model.BillingTypeMonthly, time.Time{}, false)
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, inv.ID, model.InvoiceStatusSent)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ChangeStatus(ctx, inv.ID, model.InvoiceStatusPaid)
	assert.ErrorIs(t, err, billing.ErrInvalidTransition)

	_, err = f.svc.Send(ctx, inv.ID)
	require.NoError(t, err)

	overdue, err := f.svc.ChangeStatus(ctx, inv.ID, model.InvoiceStatusOverdue)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusOverdue, overdue.Status)

	paid, err := f.svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	again, err := f.svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, again.Status)

	_, err = f.svc.ChangeStatus(ctx, inv.ID, model.InvoiceStatusOverdue)
	assert.ErrorIs(t, err, billing.ErrInvalidTransition)

	_, err = f.svc.CreatePaymentLink(ctx, inv.ID)
	assert.ErrorIs(t, err, ErrInvoiceSettled)
}

func TestInvoiceService_MarkOverdue(t *testing.T) {
	now := fixedNow()
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	f.invoices.byID["late"] = &model.Invoice{ID: "late", CustomerID: "cust-1", Status: model.InvoiceStatusSent, DueDate: now.AddDate(0, 0, -1)}
	f.invoices.byID["ontime"] = &model.Invoice{ID: "ontime", CustomerID: "cust-1", Status: model.InvoiceStatusSent, DueDate: now.AddDate(0, 0, 1)}
	f.invoices.byID["draft"] = &model.Invoice{ID: "draft", CustomerID: "cust-1", Status: model.InvoiceStatusDraft, DueDate: now.AddDate(0, 0, -1)}

	n, err := f.svc.MarkOverdue(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, model.InvoiceStatusOverdue, f.invoices.byID["late"].Status)
	assert.Equal(t, model.InvoiceStatusSent, f.invoices.byID["ontime"].Status)
	assert.Equal(t, model.InvoiceStatusDraft, f.invoices.byID["draft"].Status)
	assert.Equal(t, []string{pubsub.EventInvoiceStatusChanged}, f.events.types())
}

func TestInvoiceService_Document(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	ctx := context.Background()
	inv, err := f.svc.Generate(ctx, "cust-1", model.BillingTypeMonthly, time.Time{}, false)
	require.NoError(t, err)

	text, err := f.svc.Document(ctx, inv.ID, FormatText)
	require.NoError(t, err)
	assert.Contains(t, text, inv.InvoiceNumber)

	html, err := f.svc.Document(ctx, inv.ID, FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, html, "<html")

	_, err = f.svc.Document(ctx, inv.ID, "pdf")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Document(ctx, "missing", FormatText)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	url, err := f.svc.DocumentURL(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example/invoices/cust-1/"+inv.InvoiceNumber+".html?sig=1", url)
}

func TestInvoiceService_DocumentURL_UploadsMissingDocument(t *testing.T) {
	f := newInvoiceFixture(t, model.PaymentMethodInvoice, nil)
	f.invoices.byID["inv-1"] = &model.Invoice{ID: "inv-1", CustomerID: "cust-1", InvoiceNumber: "INV-1", Status: model.InvoiceStatusSent}

	url, err := f.svc.DocumentURL(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Contains(t, url, "invoices/cust-1/INV-1.html")
	assert.Contains(t, f.store.objects, "invoices/cust-1/INV-1.html")
	require.NotNil(t, f.invoices.byID["inv-1"].DocumentKey)
}

func TestInvoiceService_NotConfigured(t *testing.T) {
	svc := NewInvoiceService(InvoiceServiceDeps{Invoices: newFakeInvoices()}, zerolog.Nop())

	_, err := svc.CreatePaymentLink(context.Background(), "inv-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = svc.DocumentURL(context.Background(), "inv-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
