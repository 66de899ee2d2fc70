package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/billing"
	"backoffice/internal/model"
)

// AccountRepository defines methods for accessing ChatGPT seats.
// Rows carry both the legacy is_active flag and the status column; they are
// reconciled here and nowhere else.
type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	ListByCustomer(ctx context.Context, customerID string) ([]model.Account, error)
	ListAll(ctx context.Context) ([]model.Account, error)
	ListExpired(ctx context.Context, now time.Time) ([]model.Account, error)
	Update(ctx context.Context, a *model.Account, version time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.AccountStatus, version time.Time) (time.Time, error)
	SetHasCredential(ctx context.Context, id string, has bool) error
	Delete(ctx context.Context, id string) error
}

type accountRepo struct {
	db *sql.DB
}

// NewAccountRepo creates a new AccountRepository.
func NewAccountRepo(db *sql.DB) AccountRepository {
	return &accountRepo{db: db}
}

const accountColumns = `id, customer_id, email, is_active, status, product_id, start_date,
	subscription_months, expires_at, has_credential, created_at, updated_at`

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a        model.Account
		isActive bool
		status   sql.NullString
		product  sql.NullString
		months   sql.NullInt64
	)
	if err := row.Scan(
		&a.ID, &a.CustomerID, &a.Email, &isActive, &status, &product, &a.StartDate,
		&months, &a.ExpiresAt, &a.HasCredential, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Status = billing.ReconcileStatus(isActive, status.String)
	if product.Valid {
		a.ProductID = &product.String
	}
	if months.Valid {
		m := int(months.Int64)
		a.SubscriptionMonths = &m
	}
	return &a, nil
}

func (r *accountRepo) list(ctx context.Context, query string, args ...any) ([]model.Account, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create inserts a seat, writing is_active consistently with status.
func (r *accountRepo) Create(ctx context.Context, a *model.Account) error {
	const query = `
		INSERT INTO chatgpt_accounts (id, customer_id, email, is_active, status, product_id, start_date,
			subscription_months, expires_at, has_credential)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.CustomerID, a.Email, billing.LegacyActive(a.Status), a.Status, a.ProductID, a.StartDate,
		a.SubscriptionMonths, a.ExpiresAt, a.HasCredential,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", a.ID, err)
	}
	return nil
}

// GetByID returns the seat or nil if it does not exist.
func (r *accountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chatgpt_accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch account %s: %w", id, err)
	}
	return a, nil
}

// ListByCustomer returns the seats of one customer in creation order.
func (r *accountRepo) ListByCustomer(ctx context.Context, customerID string) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chatgpt_accounts WHERE customer_id = $1 ORDER BY created_at, id`
	accounts, err := r.list(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for customer %s: %w", customerID, err)
	}
	return accounts, nil
}

// ListAll returns every seat.
func (r *accountRepo) ListAll(ctx context.Context) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chatgpt_accounts ORDER BY customer_id, created_at, id`
	accounts, err := r.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ListExpired returns active seats whose expiry is at or before now. The
// filter is ReconcileStatus in SQL: a known status wins, otherwise is_active decides.
func (r *accountRepo) ListExpired(ctx context.Context, now time.Time) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chatgpt_accounts
		WHERE (status = 'active'
			OR ((status IS NULL OR status NOT IN ('active', 'suspended', 'expired')) AND is_active))
		AND expires_at <= $1
		ORDER BY expires_at`
	accounts, err := r.list(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired accounts: %w", err)
	}
	return accounts, nil
}

// Update overwrites the editable fields of a seat.
func (r *accountRepo) Update(ctx context.Context, a *model.Account, version time.Time) error {
	const query = `
		UPDATE chatgpt_accounts
		SET email = $2, is_active = $3, status = $4, product_id = $5, start_date = $6,
			subscription_months = $7, expires_at = $8, updated_at = NOW()
		WHERE id = $1 AND updated_at = $9
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Email, billing.LegacyActive(a.Status), a.Status, a.ProductID, a.StartDate,
		a.SubscriptionMonths, a.ExpiresAt, version,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update account %s: %w", a.ID, ErrVersionConflict)
		}
		return fmt.Errorf("update account %s: %w", a.ID, err)
	}
	return nil
}

// UpdateStatus changes the status and the legacy flag together.
func (r *accountRepo) UpdateStatus(ctx context.Context, id string, status model.AccountStatus, version time.Time) (time.Time, error) {
	const query = `
		UPDATE chatgpt_accounts SET status = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1 AND updated_at = $4
		RETURNING updated_at
	`
	var updated time.Time
	err := r.db.QueryRowContext(ctx, query, id, status, billing.LegacyActive(status), version).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("update status of account %s: %w", id, ErrVersionConflict)
		}
		return time.Time{}, fmt.Errorf("update status of account %s: %w", id, err)
	}
	return updated, nil
}

// SetHasCredential records whether a login credential is stored for the seat.
func (r *accountRepo) SetHasCredential(ctx context.Context, id string, has bool) error {
	const query = `UPDATE chatgpt_accounts SET has_credential = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, has); err != nil {
		return fmt.Errorf("set credential flag of account %s: %w", id, err)
	}
	return nil
}

// Delete removes a seat.
func (r *accountRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM chatgpt_accounts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete account %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
