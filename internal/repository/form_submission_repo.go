package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"backoffice/internal/model"
)

// FormSubmissionRepository defines methods for accessing inbound inquiries.
type FormSubmissionRepository interface {
	Create(ctx context.Context, s *model.FormSubmission) error
	GetByID(ctx context.Context, id string) (*model.FormSubmission, error)
	List(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.FormSubmission, error)
	// UpdateStatus moves a submission between statuses, failing with
	// ErrVersionConflict if it is no longer in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to model.SubmissionStatus) error
	// Convert creates the customer and marks the submission converted in one transaction.
	Convert(ctx context.Context, id string, from model.SubmissionStatus, customer *model.Customer) error
}

type formSubmissionRepo struct {
	db *sql.DB
}

// NewFormSubmissionRepo creates a new FormSubmissionRepository.
func NewFormSubmissionRepo(db *sql.DB) FormSubmissionRepository {
	return &formSubmissionRepo{db: db}
}

const submissionColumns = `id, organization, name, email, phone, purpose, requested_account_count,
	payment_method, message, status, customer_id, created_at, updated_at`

func scanSubmission(row rowScanner) (*model.FormSubmission, error) {
	var (
		s          model.FormSubmission
		customerID sql.NullString
	)
	if err := row.Scan(
		&s.ID, &s.Organization, &s.Name, &s.Email, &s.Phone, &s.Purpose, &s.RequestedAccountCount,
		&s.PaymentMethod, &s.Message, &s.Status, &customerID, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerID.Valid {
		s.CustomerID = &customerID.String
	}
	return &s, nil
}

// Create stores a new submission.
func (r *formSubmissionRepo) Create(ctx context.Context, s *model.FormSubmission) error {
	const query = `
		INSERT INTO form_submissions (id, organization, name, email, phone, purpose, requested_account_count,
			payment_method, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.Organization, s.Name, s.Email, s.Phone, s.Purpose, s.RequestedAccountCount,
		s.PaymentMethod, s.Message, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert form submission from %s: %w", s.Email, err)
	}
	return nil
}

// GetByID returns the submission or nil if it does not exist.
func (r *formSubmissionRepo) GetByID(ctx context.Context, id string) (*model.FormSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM form_submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch form submission %s: %w", id, err)
	}
	return s, nil
}

// List returns submissions, newest first, optionally filtered by status.
func (r *formSubmissionRepo) List(ctx context.Context, status model.SubmissionStatus, limit, offset int) ([]model.FormSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + submissionColumns + ` FROM form_submissions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list form submissions: %w", err)
	}
	defer rows.Close()

	submissions := []model.FormSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan form submission: %w", err)
		}
		submissions = append(submissions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list form submissions rows: %w", err)
	}
	return submissions, nil
}

func updateSubmissionStatus(ctx context.Context, q dbtx, id string, from, to model.SubmissionStatus, customerID *string) error {
	const query = `
		UPDATE form_submissions
		SET status = $3, customer_id = COALESCE($4, customer_id), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := q.ExecContext(ctx, query, id, from, to, customerID)
	if err != nil {
		return fmt.Errorf("move form submission %s to %s: %w", id, to, err)
	}
	return checkAffected(res, fmt.Sprintf("move form submission %s to %s", id, to))
}

// UpdateStatus moves a submission between statuses.
func (r *formSubmissionRepo) UpdateStatus(ctx context.Context, id string, from, to model.SubmissionStatus) error {
	return updateSubmissionStatus(ctx, r.db, id, from, to, nil)
}

// Convert inserts the customer and marks the submission converted atomically.
func (r *formSubmissionRepo) Convert(ctx context.Context, id string, from model.SubmissionStatus, customer *model.Customer) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin conversion of form submission %s: %w", id, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateSubmissionStatus(ctx, tx, id, from, model.SubmissionStatusConverted, &customer.ID); err != nil {
		return err
	}
	if err = insertCustomer(ctx, tx, customer); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit conversion of form submission %s: %w", id, err)
	}
	return nil
}
