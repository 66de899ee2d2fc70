package service

import (
	"context"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Summary(t *testing.T) {
	customers := newFakeCustomers(
		&model.Customer{ID: "active", Status: model.CustomerStatusActive},
		&model.Customer{ID: "trial", Status: model.CustomerStatusTrial},
		&model.Customer{ID: "suspended", Status: model.CustomerStatusSuspended},
	)
	accounts := newFakeAccounts(
		model.Account{ID: "a1", CustomerID: "active", Status: model.AccountStatusActive},
		model.Account{ID: "a2", CustomerID: "active", Status: model.AccountStatusActive, ProductID: strPtr("team")},
		model.Account{ID: "a3", CustomerID: "active", Status: model.AccountStatusExpired},
		model.Account{ID: "t1", CustomerID: "trial", Status: model.AccountStatusActive},
		model.Account{ID: "s1", CustomerID: "suspended", Status: model.AccountStatusActive},
	)
	invoices := newFakeInvoices()
	invoices.outstanding = 528000
	company := newCompanyService(newFakeCompany(
		model.Product{ID: "plus", Name: "ChatGPT Plus", UnitPrice: 20000, IsActive: true},
		model.Product{ID: "team", Name: "ChatGPT Team", UnitPrice: 30000, IsActive: true},
	), nil)

	svc := NewDashboardService(customers, accounts, invoices, company, zerolog.Nop())
	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalCustomers)
	assert.Equal(t, 1, summary.CustomersByStatus[model.CustomerStatusTrial])
	assert.Equal(t, 4, summary.BillableAccounts)
	// Only the active customer produces revenue.
	assert.Equal(t, int64(50000), summary.MonthlyRevenue)
	assert.Equal(t, int64(528000), summary.Outstanding)
}

func TestDashboardService_RevenueSeries(t *testing.T) {
	invoices := newFakeInvoices()
	invoices.totals = []model.MonthlyRevenue{
		{Month: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 264000, Count: 1},
		{Month: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Amount: 44000, Count: 2},
	}
	svc := NewDashboardService(newFakeCustomers(), newFakeAccounts(), invoices, nil, zerolog.Nop()).(*dashboardService)
	svc.now = fixedNow

	series, err := svc.RevenueSeries(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, time.February, series[0].Month.Month())
	assert.Equal(t, int64(264000), series[0].Amount)
	assert.Equal(t, time.March, series[1].Month.Month())
	assert.Zero(t, series[1].Amount)
	assert.Equal(t, time.April, series[2].Month.Month())
	assert.Equal(t, 2, series[2].Count)

	series, err = svc.RevenueSeries(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, series, 12)

	series, err = svc.RevenueSeries(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, series, 60)
}
