package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CustomerService manages contracting organizations.
type CustomerService interface {
	List(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error)
	Get(ctx context.Context, id string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	Update(ctx context.Context, c *model.Customer, version time.Time) (*model.Customer, error)
	ChangeStatus(ctx context.Context, id string, status model.CustomerStatus, version time.Time) (*model.Customer, error)
	Quote(ctx context.Context, id string, billingType model.BillingType) (*billing.Quote, error)
}

type customerService struct {
	customers repository.CustomerRepository
	accounts  repository.AccountRepository
	company   CompanyService
	payments  PaymentGateway
	logger    zerolog.Logger
	now       func() time.Time
}

// NewCustomerService creates a CustomerService. payments may be nil.
func NewCustomerService(customers repository.CustomerRepository, accounts repository.AccountRepository, company CompanyService, payments PaymentGateway, logger zerolog.Logger) CustomerService {
	return &customerService{
		customers: customers,
		accounts:  accounts,
		company:   company,
		payments:  payments,
		logger:    logger.With().Str("service", "CustomerService").Logger(),
		now:       time.Now,
	}
}

func (s *customerService) List(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	customers, err := s.customers.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list customers")
		return nil, err
	}
	return customers, nil
}

func (s *customerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	c, err := loadCustomer(ctx, s.customers, s.accounts, id)
	if err != nil && !errors.Is(err, ErrCustomerNotFound) {
		s.logger.Error().Err(err).Str("customer_id", id).Msg("Failed to get customer")
	}
	return c, err
}

func normalizeCustomer(c *model.Customer) error {
	c.Email = strings.TrimSpace(c.Email)
	c.Organization = strings.TrimSpace(c.Organization)
	if c.Organization == "" {
		return fmt.Errorf("%w: organization is required", ErrInvalidInput)
	}
	if c.Status == "" {
		c.Status = model.CustomerStatusTrial
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = model.PaymentMethodInvoice
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, c.Status)
	}
	if c.SubscriptionMonths < 0 {
		return fmt.Errorf("%w: subscription months must be positive", ErrInvalidInput)
	}
	if c.DefaultProductID != nil && *c.DefaultProductID == "" {
		c.DefaultProductID = nil
	}
	billing.ApplyCustomerExpiry(c)
	return nil
}

func (s *customerService) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = s.now()
	}
	if err := normalizeCustomer(c); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()

	if err := s.customers.Create(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("organization", c.Organization).Msg("Failed to create customer")
		return nil, err
	}
	c.Accounts = []model.Account{}
	attachStripeCustomer(ctx, s.customers, s.payments, c, s.logger)

	s.logger.Info().Str("customer_id", c.ID).Msg("Customer created")
	return c, nil
}

func (s *customerService) Update(ctx context.Context, c *model.Customer, version time.Time) (*model.Customer, error) {
	existing, err := s.customers.GetByID(ctx, c.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", c.ID).Msg("Failed to get customer")
		return nil, err
	}
	if existing == nil {
		return nil, ErrCustomerNotFound
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = existing.RegisteredAt
	}
	if c.Status == "" {
		c.Status = existing.Status
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = existing.PaymentMethod
	}
	if err := normalizeCustomer(c); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, c, version); err != nil {
		s.logger.Error().Err(err).Str("customer_id", c.ID).Msg("Failed to update customer")
		return nil, err
	}
	if c.SubscriptionMonths != existing.SubscriptionMonths {
		if err := s.refreshInheritedExpiry(ctx, c); err != nil {
			s.logger.Error().Err(err).Str("customer_id", c.ID).Msg("Failed to recompute seat expiry")
			return nil, err
		}
	}
	if c.PaymentMethod == model.PaymentMethodCard && existing.StripeCustomerID == nil {
		attachStripeCustomer(ctx, s.customers, s.payments, c, s.logger)
	}
	return s.Get(ctx, c.ID)
}

// refreshInheritedExpiry recomputes the expiry of seats that take their
// length from the customer.
func (s *customerService) refreshInheritedExpiry(ctx context.Context, c *model.Customer) error {
	accounts, err := s.accounts.ListByCustomer(ctx, c.ID)
	if err != nil {
		return err
	}
	for i := range accounts {
		a := &accounts[i]
		if a.SubscriptionMonths != nil && *a.SubscriptionMonths > 0 {
			continue
		}
		before := a.ExpiresAt
		billing.ApplyAccountExpiry(a, c)
		if a.ExpiresAt.Equal(before) {
			continue
		}
		if err := s.accounts.Update(ctx, a, a.UpdatedAt); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}
	return nil
}

func (s *customerService) ChangeStatus(ctx context.Context, id string, status model.CustomerStatus, version time.Time) (*model.Customer, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if _, err := s.customers.UpdateStatus(ctx, id, status, version); err != nil {
		s.logger.Error().Err(err).Str("customer_id", id).Str("status", string(status)).Msg("Failed to change customer status")
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *customerService) Quote(ctx context.Context, id string, billingType model.BillingType) (*billing.Quote, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := s.company.Get(ctx)
	if err != nil {
		return nil, err
	}
	q := billing.NewQuote(c, info.Products, billingType, billing.PolicyFor(info))
	return &q, nil
}

// attachStripeCustomer registers card-paying customers with the payment
// gateway. Failures are logged and otherwise ignored.
func attachStripeCustomer(ctx context.Context, customers repository.CustomerRepository, payments PaymentGateway, c *model.Customer, logger zerolog.Logger) {
	if payments == nil || c.PaymentMethod != model.PaymentMethodCard || c.StripeCustomerID != nil {
		return
	}
	stripeID, err := payments.CreateCustomer(ctx, c)
	if err != nil {
		logger.Warn().Err(err).Str("customer_id", c.ID).Msg("Failed to create Stripe customer")
		return
	}
	if err := customers.SetStripeCustomerID(ctx, c.ID, stripeID); err != nil {
		logger.Warn().Err(err).Str("customer_id", c.ID).Msg("Failed to store Stripe customer id")
		return
	}
	c.StripeCustomerID = &stripeID
}
