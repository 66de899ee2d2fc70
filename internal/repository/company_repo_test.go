package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{"id", "name", "description", "unit_price", "tax_rate", "is_active", "sort_order", "created_at", "updated_at"}

func TestCompanyRepo_Get_DefaultsWhenMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM company_settings").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM products ORDER BY sort_order").
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow("prod-1", "ChatGPT Plus", "", 20000, 10, true, 0, now, now).
			AddRow("prod-2", "ChatGPT Team", "", 30000, 10, false, 1, now, now))

	info, err := NewCompanyRepo(db).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "INV", info.InvoicePrefix)
	assert.Equal(t, 30, info.PaymentTermDays)
	assert.Equal(t, 10, info.DefaultTaxRate)
	require.Len(t, info.Products, 2)
	assert.False(t, info.Products[1].IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepo_UpdateProduct_Conflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("UPDATE products").WillReturnError(sql.ErrNoRows)

	err = NewCompanyRepo(db).UpdateProduct(context.Background(), &model.Product{ID: "prod-1"}, time.Now())
	assert.True(t, errors.Is(err, ErrVersionConflict))
}

func TestCompanyRepo_DeactivateProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE products SET is_active = FALSE").WithArgs("prod-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET is_active = FALSE").WithArgs("prod-x").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCompanyRepo(db)
	require.NoError(t, repo.DeactivateProduct(context.Background(), "prod-1"))
	assert.True(t, errors.Is(repo.DeactivateProduct(context.Background(), "prod-x"), sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDLQRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	msg := &model.DeadLetterMessage{Source: "invoice_email_queue", MessageID: "42", Payload: `{"invoice_id":"inv-1"}`, Reason: "max retries", Status: "pending"}
	mock.ExpectQuery("INSERT INTO dead_letter_messages").
		WithArgs("invoice_email_queue", "42", `{"invoice_id":"inv-1"}`, nil, "max retries", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("dlq-1", now))

	require.NoError(t, NewDLQRepository(db).Create(context.Background(), msg))
	assert.Equal(t, "dlq-1", msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
