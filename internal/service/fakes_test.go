package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"backoffice/internal/mail"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

var errBoom = errors.New("boom")

type fakeCustomers struct {
	mu       sync.Mutex
	byID     map[string]*model.Customer
	touched  []string
	stripeID map[string]string
}

func newFakeCustomers(cs ...*model.Customer) *fakeCustomers {
	f := &fakeCustomers{byID: map[string]*model.Customer{}, stripeID: map[string]string{}}
	for _, c := range cs {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeCustomers) Create(_ context.Context, c *model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) GetByID(_ context.Context, id string) (*model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Accounts = []model.Account{}
	return &cp, nil
}

func (f *fakeCustomers) List(_ context.Context, filter model.CustomerFilter) ([]model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Customer{}
	for _, c := range f.byID {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCustomers) Update(_ context.Context, c *model.Customer, version time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[c.ID]
	if !ok || !existing.UpdatedAt.Equal(version) {
		return repository.ErrVersionConflict
	}
	cp := *c
	cp.StripeCustomerID = existing.StripeCustomerID
	cp.UpdatedAt = version.Add(time.Second)
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) UpdateStatus(_ context.Context, id string, status model.CustomerStatus, version time.Time) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[id]
	if !ok || !existing.UpdatedAt.Equal(version) {
		return time.Time{}, repository.ErrVersionConflict
	}
	existing.Status = status
	existing.UpdatedAt = version.Add(time.Second)
	return existing.UpdatedAt, nil
}

func (f *fakeCustomers) SetStripeCustomerID(_ context.Context, id, stripeCustomerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stripeID[id] = stripeCustomerID
	if c, ok := f.byID[id]; ok {
		c.StripeCustomerID = &stripeCustomerID
	}
	return nil
}

func (f *fakeCustomers) TouchActivity(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	if c, ok := f.byID[id]; ok {
		c.LastActivityAt = &at
	}
	return nil
}

func (f *fakeCustomers) CountByStatus(context.Context) (map[model.CustomerStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[model.CustomerStatus]int{}
	for _, c := range f.byID {
		counts[c.Status]++
	}
	return counts, nil
}

type fakeAccounts struct {
	mu   sync.Mutex
	byID map[string]*model.Account
	// order keeps listings deterministic.
	order []string
}

func newFakeAccounts(as ...model.Account) *fakeAccounts {
	f := &fakeAccounts{byID: map[string]*model.Account{}}
	for i := range as {
		a := as[i]
		f.byID[a.ID] = &a
		f.order = append(f.order, a.ID)
	}
	return f
}

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	f.byID[a.ID] = &cp
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) filter(keep func(*model.Account) bool) []model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Account{}
	for _, id := range f.order {
		if a, ok := f.byID[id]; ok && keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (f *fakeAccounts) ListByCustomer(_ context.Context, customerID string) ([]model.Account, error) {
	return f.filter(func(a *model.Account) bool { return a.CustomerID == customerID }), nil
}

func (f *fakeAccounts) ListAll(context.Context) ([]model.Account, error) {
	return f.filter(func(*model.Account) bool { return true }), nil
}

func (f *fakeAccounts) ListExpired(_ context.Context, now time.Time) ([]model.Account, error) {
	return f.filter(func(a *model.Account) bool {
		return a.Status == model.AccountStatusActive && !a.ExpiresAt.After(now)
	}), nil
}

func (f *fakeAccounts) Update(_ context.Context, a *model.Account, version time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[a.ID]
	if !ok || !existing.UpdatedAt.Equal(version) {
		return repository.ErrVersionConflict
	}
	cp := *a
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = version.Add(time.Second)
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAccounts) UpdateStatus(_ context.Context, id string, status model.AccountStatus, version time.Time) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[id]
	if !ok || !existing.UpdatedAt.Equal(version) {
		return time.Time{}, repository.ErrVersionConflict
	}
	existing.Status = status
	existing.UpdatedAt = version.Add(time.Second)
	return existing.UpdatedAt, nil
}

func (f *fakeAccounts) SetHasCredential(_ context.Context, id string, has bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		a.HasCredential = has
	}
	return nil
}

func (f *fakeAccounts) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

type fakeCompany struct {
	info     model.CompanyInfo
	products map[string]*model.Product
	gets     int
}

func newFakeCompany(products ...model.Product) *fakeCompany {
	f := &fakeCompany{
		info:     model.CompanyInfo{Name: "Example 株式会社", InvoicePrefix: "INV", PaymentTermDays: 30, DefaultTaxRate: 10},
		products: map[string]*model.Product{},
	}
	for i := range products {
		p := products[i]
		f.products[p.ID] = &p
		f.info.Products = append(f.info.Products, p)
	}
	return f
}

func (f *fakeCompany) Get(context.Context) (*model.CompanyInfo, error) {
	f.gets++
	cp := f.info
	cp.Products = append([]model.Product(nil), f.info.Products...)
	return &cp, nil
}

func (f *fakeCompany) Update(_ context.Context, info *model.CompanyInfo, version time.Time) error {
	if !f.info.UpdatedAt.Equal(version) {
		return repository.ErrVersionConflict
	}
	products := f.info.Products
	f.info = *info
	f.info.Products = products
	f.info.UpdatedAt = version.Add(time.Second)
	return nil
}

func (f *fakeCompany) ListProducts(context.Context) ([]model.Product, error) {
	return f.info.Products, nil
}

func (f *fakeCompany) GetProduct(_ context.Context, id string) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCompany) CreateProduct(_ context.Context, p *model.Product) error {
	cp := *p
	f.products[p.ID] = &cp
	f.info.Products = append(f.info.Products, cp)
	return nil
}

func (f *fakeCompany) UpdateProduct(_ context.Context, p *model.Product, version time.Time) error {
	existing, ok := f.products[p.ID]
	if !ok || !existing.UpdatedAt.Equal(version) {
		return repository.ErrVersionConflict
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeCompany) DeactivateProduct(_ context.Context, id string) error {
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("deactivate product %s: %w", id, sql.ErrNoRows)
	}
	p.IsActive = false
	return nil
}

type fakeInvoices struct {
	mu          sync.Mutex
	byID        map[string]*model.Invoice
	outstanding int64
	totals      []model.MonthlyRevenue
}

func newFakeInvoices(invs ...model.Invoice) *fakeInvoices {
	f := &fakeInvoices{byID: map[string]*model.Invoice{}}
	for i := range invs {
		inv := invs[i]
		f.byID[inv.ID] = &inv
	}
	return f
}

func (f *fakeInvoices) Create(_ context.Context, inv *model.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvoices) GetByID(_ context.Context, id string) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) ListByCustomer(_ context.Context, customerID string) ([]model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Invoice{}
	for _, inv := range f.byID {
		if inv.CustomerID == customerID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) ListSentPastDue(_ context.Context, now time.Time) ([]model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Invoice{}
	for _, inv := range f.byID {
		if inv.Status == model.InvoiceStatusSent && inv.DueDate.Before(now) {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvoices) SetDocumentKey(_ context.Context, id, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byID[id]; ok {
		inv.DocumentKey = &key
	}
	return nil
}

func (f *fakeInvoices) TransitionStatus(_ context.Context, id string, from, to model.InvoiceStatus, at time.Time) (*model.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok || inv.Status != from {
		return nil, fmt.Errorf("move invoice %s: %w", id, repository.ErrVersionConflict)
	}
	inv.Status = to
	switch to {
	case model.InvoiceStatusSent:
		inv.EmailSentAt = &at
	case model.InvoiceStatusPaid:
		inv.PaidAt = &at
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoices) MonthlyTotals(context.Context, time.Time) ([]model.MonthlyRevenue, error) {
	return f.totals, nil
}

func (f *fakeInvoices) OutstandingTotal(context.Context) (int64, error) {
	return f.outstanding, nil
}

type fakeSubmissions struct {
	byID      map[string]*model.FormSubmission
	customers *fakeCustomers
}

func (f *fakeSubmissions) Create(_ context.Context, s *model.FormSubmission) error {
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, id string) (*model.FormSubmission, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSubmissions) List(_ context.Context, status model.SubmissionStatus, _, _ int) ([]model.FormSubmission, error) {
	out := []model.FormSubmission{}
	for _, s := range f.byID {
		if status == "" || s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) UpdateStatus(_ context.Context, id string, from, to model.SubmissionStatus) error {
	s, ok := f.byID[id]
	if !ok || s.Status != from {
		return repository.ErrVersionConflict
	}
	s.Status = to
	return nil
}

func (f *fakeSubmissions) Convert(ctx context.Context, id string, from model.SubmissionStatus, c *model.Customer) error {
	if err := f.UpdateStatus(ctx, id, from, model.SubmissionStatusConverted); err != nil {
		return err
	}
	f.byID[id].CustomerID = &c.ID
	return f.customers.Create(ctx, c)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.SendEmailParams
	err  error
}

func (f *fakeSender) SendEmail(_ context.Context, p mail.SendEmailParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, p)
	return nil
}

type fakeStore struct {
	objects map[string][]byte
	err     error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Put(_ context.Context, key, _ string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = body
	return nil
}

func (f *fakeStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://storage.example/" + key + "?sig=1", nil
}

type fakeVault struct {
	secrets map[string]string
}

func newFakeVault() *fakeVault { return &fakeVault{secrets: map[string]string{}} }

func (f *fakeVault) Store(_ context.Context, accountID, secret string) error {
	f.secrets[accountID] = secret
	return nil
}

func (f *fakeVault) Reveal(_ context.Context, accountID string) (string, error) {
	s, ok := f.secrets[accountID]
	if !ok {
		return "", errBoom
	}
	return s, nil
}

func (f *fakeVault) Delete(_ context.Context, accountID string) error {
	delete(f.secrets, accountID)
	return nil
}

type fakeGateway struct {
	customerErr error
	links       int
}

func (f *fakeGateway) CreateCustomer(_ context.Context, c *model.Customer) (string, error) {
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return "cus_" + c.ID, nil
}

func (f *fakeGateway) CreatePaymentLink(_ context.Context, inv *model.Invoice, _ *model.Customer) (string, error) {
	f.links++
	return "https://checkout.stripe.example/" + inv.ID, nil
}

type fakeQueue struct {
	queue    string
	payloads [][]byte
}

func (f *fakeQueue) Send(_ context.Context, queue string, payload []byte) (int64, error) {
	f.queue = queue
	f.payloads = append(f.payloads, payload)
	return int64(len(f.payloads)), nil
}

type recordedEvent struct {
	Type string
	Data any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEmitter) Emit(_ context.Context, eventType string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (f *fakeEmitter) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeDLQ struct {
	messages []*model.DeadLetterMessage
	err      error
}

func (f *fakeDLQ) Create(_ context.Context, m *model.DeadLetterMessage) error {
	if f.err != nil {
		return f.err
	}
	m.ID = fmt.Sprintf("dlq-%d", len(f.messages)+1)
	f.messages = append(f.messages, m)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
}
