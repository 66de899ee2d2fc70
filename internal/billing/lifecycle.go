package billing

import (
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
)

// ErrInvalidTransition is wrapped by TransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionError reports a rejected status change.
type TransitionError struct {
	Kind string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move %s from '%s' to '%s'", ErrInvalidTransition, e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ReconcileStatus collapses the legacy is_active flag and the newer status
// column into one state. A known status always wins; the boolean only decides
// for rows written before the status column existed.
func ReconcileStatus(isActive bool, status string) model.AccountStatus {
	s := model.AccountStatus(status)
	if s.Valid() {
		return s
	}
	if isActive {
		return model.AccountStatusActive
	}
	return model.AccountStatusSuspended
}

// LegacyActive is the is_active value persisted alongside a status.
func LegacyActive(status model.AccountStatus) bool {
	return status == model.AccountStatusActive
}

// AddMonths adds calendar months to t. When the target month is shorter the
// result is clamped to its last day, so Jan 31 + 1 month is the end of February.
func AddMonths(t time.Time, months int) time.Time {
	if months == 0 {
		return t
	}
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ExpiresAt is the end of a subscription that starts at start and runs for months.
func ExpiresAt(start time.Time, months int) time.Time {
	if months <= 0 {
		months = DefaultSubscriptionMonths
	}
	return AddMonths(start, months)
}

// ApplyCustomerExpiry recomputes the customer's expiry from its registration date.
func ApplyCustomerExpiry(c *model.Customer) {
	if c.SubscriptionMonths <= 0 {
		c.SubscriptionMonths = DefaultSubscriptionMonths
	}
	c.ExpiresAt = ExpiresAt(c.RegisteredAt, c.SubscriptionMonths)
}

// ApplyAccountExpiry recomputes the seat's expiry from its start date, using
// the customer's length when the seat does not set one.
func ApplyAccountExpiry(a *model.Account, customer *model.Customer) {
	a.ExpiresAt = ExpiresAt(a.StartDate, ResolveMonths(a, customer))
}

// Expired reports whether an active seat has run past its expiry at now.
func Expired(a *model.Account, now time.Time) bool {
	return a.Status == model.AccountStatusActive && !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

var invoiceTransitions = map[model.InvoiceStatus][]model.InvoiceStatus{
	model.InvoiceStatusDraft:   {model.InvoiceStatusSent},
	model.InvoiceStatusSent:    {model.InvoiceStatusPaid, model.InvoiceStatusOverdue},
	model.InvoiceStatusOverdue: {model.InvoiceStatusPaid},
}

// CheckInvoiceTransition validates an invoice status change.
func CheckInvoiceTransition(from, to model.InvoiceStatus) error {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{Kind: "invoice", From: string(from), To: string(to)}
}

// Overdue reports whether a sent invoice has passed its due date at now.
func Overdue(inv *model.Invoice, now time.Time) bool {
	return inv.Status == model.InvoiceStatusSent && now.After(inv.DueDate)
}

var submissionTransitions = map[model.SubmissionStatus][]model.SubmissionStatus{
	model.SubmissionStatusNew:       {model.SubmissionStatusContacted, model.SubmissionStatusConverted, model.SubmissionStatusClosed},
	model.SubmissionStatusContacted: {model.SubmissionStatusConverted, model.SubmissionStatusClosed},
	model.SubmissionStatusClosed:    {model.SubmissionStatusContacted},
}

// CheckSubmissionTransition validates a form submission status change.
// Converted submissions never change again.
func CheckSubmissionTransition(from, to model.SubmissionStatus) error {
	for _, next := range submissionTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{Kind: "submission", From: string(from), To: string(to)}
}
