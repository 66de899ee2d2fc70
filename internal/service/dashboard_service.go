package service

import (
	"context"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/rs/zerolog"
)

const (
	defaultRevenueMonths = 12
	maxRevenueMonths     = 60
)

var jst = time.FixedZone("JST", 9*60*60)

// DashboardSummary is the headline numbers of the back office.
type DashboardSummary struct {
	CustomersByStatus map[model.CustomerStatus]int `json:"customers_by_status"`
	TotalCustomers    int                          `json:"total_customers"`
	BillableAccounts  int                          `json:"billable_accounts"`
	MonthlyRevenue    int64                        `json:"monthly_revenue"`
	Outstanding       int64                        `json:"outstanding"`
}

// DashboardService aggregates figures for the admin dashboard.
type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
	// RevenueSeries returns invoiced totals for the last months calendar
	// months in JST, oldest first, with empty months reported as zero.
	RevenueSeries(ctx context.Context, months int) ([]model.MonthlyRevenue, error)
}

type dashboardService struct {
	customers repository.CustomerRepository
	accounts  repository.AccountRepository
	invoices  repository.InvoiceRepository
	company   CompanyService
	logger    zerolog.Logger
	now       func() time.Time
}

func NewDashboardService(customers repository.CustomerRepository, accounts repository.AccountRepository, invoices repository.InvoiceRepository, company CompanyService, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		customers: customers,
		accounts:  accounts,
		invoices:  invoices,
		company:   company,
		logger:    logger.With().Str("service", "DashboardService").Logger(),
		now:       time.Now,
	}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	counts, err := s.customers.CountByStatus(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count customers")
		return nil, err
	}
	customers, err := s.customers.List(ctx, model.CustomerFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list customers")
		return nil, err
	}
	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list accounts")
		return nil, err
	}
	info, err := s.company.Get(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.invoices.OutstandingTotal(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to sum outstanding invoices")
		return nil, err
	}

	byCustomer := make(map[string][]model.Account, len(customers))
	summary := &DashboardSummary{CustomersByStatus: counts, Outstanding: outstanding}
	for _, a := range accounts {
		byCustomer[a.CustomerID] = append(byCustomer[a.CustomerID], a)
		if billing.Billable(&a) {
			summary.BillableAccounts++
		}
	}
	for _, n := range counts {
		summary.TotalCustomers += n
	}
	for i := range customers {
		c := &customers[i]
		c.Accounts = byCustomer[c.ID]
		summary.MonthlyRevenue += billing.DisplayedMonthlyRevenue(c, info.Products)
	}
	return summary, nil
}

func monthStart(t time.Time) time.Time {
	t = t.In(jst)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, jst)
}

func (s *dashboardService) RevenueSeries(ctx context.Context, months int) ([]model.MonthlyRevenue, error) {
	if months <= 0 {
		months = defaultRevenueMonths
	}
	if months > maxRevenueMonths {
		months = maxRevenueMonths
	}
	first := monthStart(s.now()).AddDate(0, -(months - 1), 0)

	totals, err := s.invoices.MonthlyTotals(ctx, first)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load monthly totals")
		return nil, err
	}
	byMonth := make(map[string]model.MonthlyRevenue, len(totals))
	for _, t := range totals {
		// date_trunc yields a zone-less timestamp already in JST wall time.
		m := time.Date(t.Month.Year(), t.Month.Month(), 1, 0, 0, 0, 0, jst)
		byMonth[m.Format("2006-01")] = t
	}

	series := make([]model.MonthlyRevenue, 0, months)
	for i := 0; i < months; i++ {
		m := first.AddDate(0, i, 0)
		entry := model.MonthlyRevenue{Month: m}
		if t, ok := byMonth[m.Format("2006-01")]; ok {
			entry.Amount = t.Amount
			entry.Count = t.Count
		}
		series = append(series, entry)
	}
	return series, nil
}
