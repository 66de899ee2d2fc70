package billing

import (
	"errors"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileStatus(t *testing.T) {
	tests := []struct {
		isActive bool
		status   string
		want     model.AccountStatus
	}{
		{true, "", model.AccountStatusActive},
		{false, "", model.AccountStatusSuspended},
		{true, "suspended", model.AccountStatusSuspended},
		{false, "active", model.AccountStatusActive},
		{true, "expired", model.AccountStatusExpired},
		{false, "bogus", model.AccountStatusSuspended},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReconcileStatus(tt.isActive, tt.status), "isActive=%v status=%q", tt.isActive, tt.status)
	}
}

func TestLegacyActiveRoundTrip(t *testing.T) {
	for _, s := range []model.AccountStatus{model.AccountStatusActive, model.AccountStatusSuspended, model.AccountStatusExpired} {
		assert.Equal(t, s, ReconcileStatus(LegacyActive(s), string(s)))
	}
	assert.True(t, LegacyActive(model.AccountStatusActive))
	assert.False(t, LegacyActive(model.AccountStatusExpired))
}

func TestAddMonths(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 9, 30, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain", d(2024, time.April, 1), 12, d(2025, time.April, 1)},
		{"clamps to leap february", d(2024, time.January, 31), 1, d(2024, time.February, 29)},
		{"clamps to february", d(2023, time.January, 31), 1, d(2023, time.February, 28)},
		{"month end to shorter month", d(2024, time.March, 31), 1, d(2024, time.April, 30)},
		{"crosses year", d(2024, time.November, 15), 3, d(2025, time.February, 15)},
		{"negative", d(2024, time.March, 31), -1, d(2024, time.February, 29)},
		{"zero", d(2024, time.March, 31), 0, d(2024, time.March, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(AddMonths(tt.start, tt.months)), "got %s", AddMonths(tt.start, tt.months))
		})
	}
}

func TestApplyAccountExpiry(t *testing.T) {
	start := time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC)
	customer := &model.Customer{SubscriptionMonths: 6}

	a := &model.Account{StartDate: start}
	ApplyAccountExpiry(a, customer)
	assert.True(t, a.ExpiresAt.Equal(AddMonths(start, 6)))

	a.SubscriptionMonths = intPtr(3)
	ApplyAccountExpiry(a, customer)
	assert.True(t, a.ExpiresAt.Equal(AddMonths(start, 3)))

	a.StartDate = start.AddDate(0, 1, 0)
	ApplyAccountExpiry(a, customer)
	assert.True(t, a.ExpiresAt.Equal(AddMonths(a.StartDate, 3)))
}

func TestApplyCustomerExpiry(t *testing.T) {
	c := &model.Customer{RegisteredAt: time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)}
	ApplyCustomerExpiry(c)
	assert.Equal(t, DefaultSubscriptionMonths, c.SubscriptionMonths)
	assert.True(t, c.ExpiresAt.Equal(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)))
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Expired(&model.Account{Status: model.AccountStatusActive, ExpiresAt: now}, now))
	assert.True(t, Expired(&model.Account{Status: model.AccountStatusActive, ExpiresAt: now.Add(-time.Hour)}, now))
	assert.False(t, Expired(&model.Account{Status: model.AccountStatusActive, ExpiresAt: now.Add(time.Hour)}, now))
	assert.False(t, Expired(&model.Account{Status: model.AccountStatusSuspended, ExpiresAt: now.Add(-time.Hour)}, now))
	assert.False(t, Expired(&model.Account{Status: model.AccountStatusActive}, now))
}

func TestCheckInvoiceTransition(t *testing.T) {
	allowed := [][2]model.InvoiceStatus{
		{model.InvoiceStatusDraft, model.InvoiceStatusSent},
		{model.InvoiceStatusSent, model.InvoiceStatusPaid},
		{model.InvoiceStatusSent, model.InvoiceStatusOverdue},
		{model.InvoiceStatusOverdue, model.InvoiceStatusPaid},
	}
	for _, tr := range allowed {
		assert.NoError(t, CheckInvoiceTransition(tr[0], tr[1]))
	}

	rejected := [][2]model.InvoiceStatus{
		{model.InvoiceStatusDraft, model.InvoiceStatusPaid},
		{model.InvoiceStatusPaid, model.InvoiceStatusSent},
		{model.InvoiceStatusPaid, model.InvoiceStatusOverdue},
		{model.InvoiceStatusSent, model.InvoiceStatusDraft},
	}
	for _, tr := range rejected {
		err := CheckInvoiceTransition(tr[0], tr[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		var te *TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, string(tr[0]), te.From)
	}
}

func TestCheckSubmissionTransition(t *testing.T) {
	assert.NoError(t, CheckSubmissionTransition(model.SubmissionStatusNew, model.SubmissionStatusContacted))
	assert.NoError(t, CheckSubmissionTransition(model.SubmissionStatusContacted, model.SubmissionStatusConverted))
	assert.NoError(t, CheckSubmissionTransition(model.SubmissionStatusClosed, model.SubmissionStatusContacted))
	assert.ErrorIs(t, CheckSubmissionTransition(model.SubmissionStatusConverted, model.SubmissionStatusNew), ErrInvalidTransition)
	assert.ErrorIs(t, CheckSubmissionTransition(model.SubmissionStatusConverted, model.SubmissionStatusClosed), ErrInvalidTransition)
	assert.ErrorIs(t, CheckSubmissionTransition(model.SubmissionStatusClosed, model.SubmissionStatusConverted), ErrInvalidTransition)
}
