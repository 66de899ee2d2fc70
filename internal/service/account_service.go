package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/model"
	"backoffice/internal/pubsub"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountService links ChatGPT seats to customers.
type AccountService interface {
	ListByCustomer(ctx context.Context, customerID string) ([]model.Account, error)
	Link(ctx context.Context, customerID string, a *model.Account, credential string) (*model.Account, error)
	Update(ctx context.Context, a *model.Account, version time.Time) (*model.Account, error)
	ChangeStatus(ctx context.Context, id string, status model.AccountStatus, version time.Time) (*model.Account, error)
	Unlink(ctx context.Context, id string) error

	StoreCredential(ctx context.Context, id, credential string) error
	RevealCredential(ctx context.Context, id string) (string, error)

	// ExpireOverdue marks every active seat past its expiry as expired and
	// returns how many were changed.
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

type accountService struct {
	accounts  repository.AccountRepository
	customers repository.CustomerRepository
	vault     CredentialVault
	events    EventEmitter
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAccountService creates an AccountService. vault may be nil, in which
// case credential operations fail with ErrNotConfigured.
func NewAccountService(accounts repository.AccountRepository, customers repository.CustomerRepository, vault CredentialVault, events EventEmitter, logger zerolog.Logger) AccountService {
	if events == nil {
		events = nopEmitter{}
	}
	return &accountService{
		accounts:  accounts,
		customers: customers,
		vault:     vault,
		events:    events,
		logger:    logger.With().Str("service", "AccountService").Logger(),
		now:       time.Now,
	}
}

func (s *accountService) customer(ctx context.Context, id string) (*model.Customer, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

func (s *accountService) account(ctx context.Context, id string) (*model.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (s *accountService) touch(ctx context.Context, customerID string) {
	if err := s.customers.TouchActivity(ctx, customerID, s.now()); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", customerID).Msg("Failed to touch customer activity")
	}
}

func normalizeAccount(a *model.Account, c *model.Customer) error {
	a.Email = strings.TrimSpace(a.Email)
	if a.Email == "" {
		return fmt.Errorf("%w: account email is required", ErrInvalidInput)
	}
	if a.Status == "" {
		a.Status = model.AccountStatusActive
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, a.Status)
	}
	if a.SubscriptionMonths != nil && *a.SubscriptionMonths <= 0 {
		a.SubscriptionMonths = nil
	}
	if a.ProductID != nil && *a.ProductID == "" {
		a.ProductID = nil
	}
	billing.ApplyAccountExpiry(a, c)
	return nil
}

func (s *accountService) ListByCustomer(ctx context.Context, customerID string) ([]model.Account, error) {
	if _, err := s.customer(ctx, customerID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.ListByCustomer(ctx, customerID)
	if err != nil {
		s.logger.Error().Err(err).Str("customer_id", customerID).Msg("Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *accountService) Link(ctx context.Context, customerID string, a *model.Account, credential string) (*model.Account, error) {
	c, err := s.customer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if credential != "" && s.vault == nil {
		return nil, ErrNotConfigured
	}
	a.CustomerID = c.ID
	if a.StartDate.IsZero() {
		a.StartDate = s.now()
	}
	if err := normalizeAccount(a, c); err != nil {
		return nil, err
	}
	a.ID = uuid.NewString()

	if err := s.accounts.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("customer_id", c.ID).Msg("Failed to link account")
		return nil, err
	}
	if credential != "" {
		if err := s.StoreCredential(ctx, a.ID, credential); err != nil {
			return nil, err
		}
		a.HasCredential = true
	}
	s.touch(ctx, c.ID)
	return a, nil
}

func (s *accountService) Update(ctx context.Context, a *model.Account, version time.Time) (*model.Account, error) {
	existing, err := s.account(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	c, err := s.customer(ctx, existing.CustomerID)
	if err != nil {
		return nil, err
	}
	a.CustomerID = existing.CustomerID
	a.HasCredential = existing.HasCredential
	if a.StartDate.IsZero() {
		a.StartDate = existing.StartDate
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if err := normalizeAccount(a, c); err != nil {
		return nil, err
	}
	if err := s.accounts.Update(ctx, a, version); err != nil {
		s.logger.Error().Err(err).Str("account_id", a.ID).Msg("Failed to update account")
		return nil, err
	}
	s.touch(ctx, a.CustomerID)
	return s.account(ctx, a.ID)
}

func (s *accountService) ChangeStatus(ctx context.Context, id string, status model.AccountStatus, version time.Time) (*model.Account, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	a, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.UpdateStatus(ctx, id, status, version); err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Str("status", string(status)).Msg("Failed to change account status")
		return nil, err
	}
	s.touch(ctx, a.CustomerID)
	return s.account(ctx, id)
}

func (s *accountService) Unlink(ctx context.Context, id string) error {
	a, err := s.account(ctx, id)
	if err != nil {
		return err
	}
	if a.HasCredential && s.vault != nil {
		if err := s.vault.Delete(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to delete account credential")
			return err
		}
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		if isNoRows(err) {
			return ErrAccountNotFound
		}
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to unlink account")
		return err
	}
	s.touch(ctx, a.CustomerID)
	return nil
}

func (s *accountService) StoreCredential(ctx context.Context, id, credential string) error {
	if s.vault == nil {
		return ErrNotConfigured
	}
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: credential is empty", ErrInvalidInput)
	}
	if err := s.vault.Store(ctx, id, credential); err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to store account credential")
		return err
	}
	if err := s.accounts.SetHasCredential(ctx, id, true); err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to flag account credential")
		return err
	}
	return nil
}

func (s *accountService) RevealCredential(ctx context.Context, id string) (string, error) {
	if s.vault == nil {
		return "", ErrNotConfigured
	}
	a, err := s.account(ctx, id)
	if err != nil {
		return "", err
	}
	if !a.HasCredential {
		return "", fmt.Errorf("%w: account has no stored credential", ErrInvalidInput)
	}
	secret, err := s.vault.Reveal(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("account_id", id).Msg("Failed to reveal account credential")
		return "", err
	}
	return secret, nil
}

func (s *accountService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.accounts.ListExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list expired accounts")
		return 0, err
	}

	expired := 0
	for i := range candidates {
		a := &candidates[i]
		if !billing.Expired(a, now) {
			continue
		}
		if _, err := s.accounts.UpdateStatus(ctx, a.ID, model.AccountStatusExpired, a.UpdatedAt); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				s.logger.Debug().Str("account_id", a.ID).Msg("Account changed during sweep, skipping")
				continue
			}
			s.logger.Error().Err(err).Str("account_id", a.ID).Msg("Failed to expire account")
			return expired, err
		}
		expired++
		if err := s.events.Emit(ctx, pubsub.EventAccountExpired, map[string]string{
			"account_id":  a.ID,
			"customer_id": a.CustomerID,
		}); err != nil {
			s.logger.Warn().Err(err).Str("account_id", a.ID).Msg("Failed to publish account expiry")
		}
	}
	if expired > 0 {
		s.logger.Info().Int("count", expired).Msg("Expired accounts")
	}
	return expired, nil
}
