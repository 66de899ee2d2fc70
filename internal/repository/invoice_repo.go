package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
)

// InvoiceRepository is the server-side invoice ledger.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	GetByID(ctx context.Context, id string) (*model.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error)
	ListSentPastDue(ctx context.Context, now time.Time) ([]model.Invoice, error)
	SetDocumentKey(ctx context.Context, id, key string) error
	// TransitionStatus moves the invoice from one status to another, failing
	// with ErrVersionConflict if it is no longer in the expected status.
	TransitionStatus(ctx context.Context, id string, from, to model.InvoiceStatus, at time.Time) (*model.Invoice, error)
	MonthlyTotals(ctx context.Context, since time.Time) ([]model.MonthlyRevenue, error)
	OutstandingTotal(ctx context.Context) (int64, error)
}

type invoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo creates a new InvoiceRepository.
func NewInvoiceRepo(db *sql.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, customer_id, invoice_number, billing_type, lines, monthly_fee, billing_months,
	subtotal, tax_amount, total_amount, issue_date, due_date, status, document_key, email_sent_at,
	paid_at, created_at, updated_at`

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		inv      model.Invoice
		rawLines []byte
		docKey   sql.NullString
		sentAt   sql.NullTime
		paidAt   sql.NullTime
	)
	if err := row.Scan(
		&inv.ID, &inv.CustomerID, &inv.InvoiceNumber, &inv.BillingType, &rawLines, &inv.MonthlyFee, &inv.BillingMonths,
		&inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.IssueDate, &inv.DueDate, &inv.Status, &docKey, &sentAt,
		&paidAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	inv.Lines = []model.InvoiceLine{}
	if len(rawLines) > 0 {
		if err := json.Unmarshal(rawLines, &inv.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal lines of invoice %s: %w", inv.ID, err)
		}
	}
	if docKey.Valid {
		inv.DocumentKey = &docKey.String
	}
	if sentAt.Valid {
		inv.EmailSentAt = &sentAt.Time
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	return &inv, nil
}

func (r *invoiceRepo) list(ctx context.Context, query string, args ...any) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []model.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Create inserts a generated invoice.
func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	lines, err := json.Marshal(inv.Lines)
	if err != nil {
		return fmt.Errorf("marshal lines of invoice %s: %w", inv.InvoiceNumber, err)
	}
	const query = `
		INSERT INTO invoices (id, customer_id, invoice_number, billing_type, lines, monthly_fee, billing_months,
			subtotal, tax_amount, total_amount, issue_date, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		inv.ID, inv.CustomerID, inv.InvoiceNumber, inv.BillingType, string(lines), inv.MonthlyFee, inv.BillingMonths,
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount, inv.IssueDate, inv.DueDate, inv.Status,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice %s: %w", inv.InvoiceNumber, err)
	}
	return nil
}

// GetByID returns the invoice or nil if it does not exist.
func (r *invoiceRepo) GetByID(ctx context.Context, id string) (*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch invoice %s: %w", id, err)
	}
	return inv, nil
}

// ListByCustomer returns a customer's invoices, newest first.
func (r *invoiceRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE customer_id = $1 ORDER BY issue_date DESC, id`
	invoices, err := r.list(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices for customer %s: %w", customerID, err)
	}
	return invoices, nil
}

// ListSentPastDue returns sent invoices whose due date is before now.
func (r *invoiceRepo) ListSentPastDue(ctx context.Context, now time.Time) ([]model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE status = 'sent' AND due_date < $1 ORDER BY due_date`
	invoices, err := r.list(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list past due invoices: %w", err)
	}
	return invoices, nil
}

// SetDocumentKey stores where the rendered document lives.
func (r *invoiceRepo) SetDocumentKey(ctx context.Context, id, key string) error {
	const query = `UPDATE invoices SET document_key = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, key); err != nil {
		return fmt.Errorf("set document key of invoice %s: %w", id, err)
	}
	return nil
}

// TransitionStatus applies a status change and stamps email_sent_at or
// paid_at when entering sent or paid.
func (r *invoiceRepo) TransitionStatus(ctx context.Context, id string, from, to model.InvoiceStatus, at time.Time) (*model.Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $3,
			email_sent_at = CASE WHEN $3 = 'sent' THEN $4 ELSE email_sent_at END,
			paid_at = CASE WHEN $3 = 'paid' THEN $4 ELSE paid_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + invoiceColumns
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id, from, to, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("move invoice %s from %s to %s: %w", id, from, to, ErrVersionConflict)
		}
		return nil, fmt.Errorf("move invoice %s from %s to %s: %w", id, from, to, err)
	}
	return inv, nil
}

// MonthlyTotals sums non-draft invoices by issue month (JST) since the given time.
func (r *invoiceRepo) MonthlyTotals(ctx context.Context, since time.Time) ([]model.MonthlyRevenue, error) {
	const query = `
		SELECT date_trunc('month', issue_date AT TIME ZONE 'Asia/Tokyo') AS month,
			COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM invoices
		WHERE status <> 'draft' AND issue_date >= $1
		GROUP BY month
		ORDER BY month
	`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("sum invoices by month: %w", err)
	}
	defer rows.Close()

	totals := []model.MonthlyRevenue{}
	for rows.Next() {
		var m model.MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Amount, &m.Count); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		totals = append(totals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum invoices rows: %w", err)
	}
	return totals, nil
}

// OutstandingTotal sums invoices that were sent but not yet paid.
func (r *invoiceRepo) OutstandingTotal(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE status IN ('sent', 'overdue')`
	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum outstanding invoices: %w", err)
	}
	return total, nil
}
