// Package expiry runs the scheduled sweep that expires lapsed seats and
// flags unpaid invoices past their due date.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sweep kinds recorded in the metrics.
const (
	kindAccounts = "accounts_expired"
	kindInvoices = "invoices_overdue"
)

// AccountExpirer expires seats whose term has ended.
type AccountExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// OverdueMarker flags sent invoices past their due date.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

type Sweeper struct {
	accounts AccountExpirer
	invoices OverdueMarker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSweeper(accounts AccountExpirer, invoices OverdueMarker, m *metrics.Metrics, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		accounts: accounts,
		invoices: invoices,
		metrics:  m,
		logger:   logger.With().Str("orchestrator", "expiry").Logger(),
		now:      time.Now,
	}
}

// Sweep runs both passes. A failure in one pass does not skip the other.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	expired, accErr := s.accounts.ExpireOverdue(ctx, now)
	s.metrics.SweepUpdated(kindAccounts, expired)
	if accErr != nil {
		accErr = fmt.Errorf("expire accounts: %w", accErr)
	}

	overdue, invErr := s.invoices.MarkOverdue(ctx, now)
	s.metrics.SweepUpdated(kindInvoices, overdue)
	if invErr != nil {
		invErr = fmt.Errorf("mark invoices overdue: %w", invErr)
	}

	s.logger.Info().
		Int("accounts_expired", expired).
		Int("invoices_overdue", overdue).
		Msg("Expiry sweep finished")
	return errors.Join(accErr, invErr)
}

// Run sweeps once at start and then on schedule, a standard cron
// expression or descriptor such as "@daily" evaluated in Asia/Tokyo, until
// ctx is cancelled.
func Run(ctx context.Context, schedule string, s *Sweeper) error {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.FixedZone("JST", 9*60*60)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Expiry sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.logger.Info().Str("schedule", schedule).Msg("Starting expiry orchestrator")
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Initial expiry sweep failed")
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("Shutting down expiry orchestrator")
	return nil
}
