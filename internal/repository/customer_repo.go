package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
)

// CustomerRepository defines methods for accessing customer records.
type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error)
	// Update overwrites the editable fields if updated_at still equals version.
	Update(ctx context.Context, c *model.Customer, version time.Time) error
	UpdateStatus(ctx context.Context, id string, status model.CustomerStatus, version time.Time) (time.Time, error)
	SetStripeCustomerID(ctx context.Context, id, stripeCustomerID string) error
	TouchActivity(ctx context.Context, id string, at time.Time) error
	CountByStatus(ctx context.Context) (map[model.CustomerStatus]int, error)
}

type customerRepo struct {
	db *sql.DB
}

// NewCustomerRepo creates a new CustomerRepository.
func NewCustomerRepo(db *sql.DB) CustomerRepository {
	return &customerRepo{db: db}
}

const customerColumns = `id, email, organization, contact_name, phone, status, plan, payment_method,
	default_product_id, registered_at, subscription_months, expires_at, last_activity_at,
	stripe_customer_id, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*model.Customer, error) {
	var (
		c            model.Customer
		defaultProd  sql.NullString
		lastActivity sql.NullTime
		stripeID     sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.Email, &c.Organization, &c.ContactName, &c.Phone, &c.Status, &c.Plan, &c.PaymentMethod,
		&defaultProd, &c.RegisteredAt, &c.SubscriptionMonths, &c.ExpiresAt, &lastActivity,
		&stripeID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if defaultProd.Valid {
		c.DefaultProductID = &defaultProd.String
	}
	if lastActivity.Valid {
		c.LastActivityAt = &lastActivity.Time
	}
	if stripeID.Valid {
		c.StripeCustomerID = &stripeID.String
	}
	c.Accounts = []model.Account{}
	return &c, nil
}

func insertCustomer(ctx context.Context, q dbtx, c *model.Customer) error {
	const query = `
		INSERT INTO customers (id, email, organization, contact_name, phone, status, plan, payment_method,
			default_product_id, registered_at, subscription_months, expires_at, stripe_customer_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	err := q.QueryRowContext(ctx, query,
		c.ID, c.Email, c.Organization, c.ContactName, c.Phone, c.Status, c.Plan, c.PaymentMethod,
		c.DefaultProductID, c.RegisteredAt, c.SubscriptionMonths, c.ExpiresAt, c.StripeCustomerID, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert customer %s: %w", c.ID, err)
	}
	return nil
}

// Create inserts a new customer.
func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return insertCustomer(ctx, r.db, c)
}

// GetByID returns the customer without its accounts, or nil if it does not exist.
func (r *customerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch customer %s: %w", id, err)
	}
	return c, nil
}

// List returns customers matching the filter, newest first. A zero limit
// returns every match.
func (r *customerRepo) List(ctx context.Context, filter model.CustomerFilter) ([]model.Customer, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(organization ILIKE $%d OR email ILIKE $%d OR contact_name ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + customerColumns + ` FROM customers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY registered_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers rows: %w", err)
	}
	return customers, nil
}

// Update overwrites the editable fields of a customer.
func (r *customerRepo) Update(ctx context.Context, c *model.Customer, version time.Time) error {
	const query = `
		UPDATE customers
		SET email = $2, organization = $3, contact_name = $4, phone = $5, status = $6, plan = $7,
			payment_method = $8, default_product_id = $9, registered_at = $10, subscription_months = $11,
			expires_at = $12, notes = $13, updated_at = NOW()
		WHERE id = $1 AND updated_at = $14
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.Email, c.Organization, c.ContactName, c.Phone, c.Status, c.Plan,
		c.PaymentMethod, c.DefaultProductID, c.RegisteredAt, c.SubscriptionMonths,
		c.ExpiresAt, c.Notes, version,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update customer %s: %w", c.ID, ErrVersionConflict)
		}
		return fmt.Errorf("update customer %s: %w", c.ID, err)
	}
	return nil
}

// UpdateStatus changes only the status and returns the new version.
func (r *customerRepo) UpdateStatus(ctx context.Context, id string, status model.CustomerStatus, version time.Time) (time.Time, error) {
	const query = `
		UPDATE customers SET status = $2, updated_at = NOW()
		WHERE id = $1 AND updated_at = $3
		RETURNING updated_at
	`
	var updated time.Time
	if err := r.db.QueryRowContext(ctx, query, id, status, version).Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("update status of customer %s: %w", id, ErrVersionConflict)
		}
		return time.Time{}, fmt.Errorf("update status of customer %s: %w", id, err)
	}
	return updated, nil
}

// SetStripeCustomerID links the customer to its Stripe customer.
func (r *customerRepo) SetStripeCustomerID(ctx context.Context, id, stripeCustomerID string) error {
	const query = `UPDATE customers SET stripe_customer_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, stripeCustomerID); err != nil {
		return fmt.Errorf("store stripe customer id for %s: %w", id, err)
	}
	return nil
}

// TouchActivity records the last time anything changed for the customer.
// It does not bump updated_at so concurrent editors are not invalidated.
func (r *customerRepo) TouchActivity(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE customers SET last_activity_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("touch activity of customer %s: %w", id, err)
	}
	return nil
}

// CountByStatus returns the number of customers per status.
func (r *customerRepo) CountByStatus(ctx context.Context) (map[model.CustomerStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM customers GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count customers by status: %w", err)
	}
	defer rows.Close()

	counts := map[model.CustomerStatus]int{}
	for rows.Next() {
		var (
			status model.CustomerStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan customer count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count customers rows: %w", err)
	}
	return counts, nil
}
