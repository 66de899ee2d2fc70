package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormSubmissionRepo_Convert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	c := &model.Customer{ID: "cust-9", Email: "info@sakura.example", Organization: "さくら病院", Status: model.CustomerStatusTrial, SubscriptionMonths: 12, RegisteredAt: now, ExpiresAt: now.AddDate(1, 0, 0)}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE form_submissions").
		WithArgs("sub-1", "contacted", "converted", "cust-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO customers").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	err = NewFormSubmissionRepo(db).Convert(context.Background(), "sub-1", model.SubmissionStatusContacted, c)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSubmissionRepo_Convert_RollsBackOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE form_submissions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = NewFormSubmissionRepo(db).Convert(context.Background(), "sub-1", model.SubmissionStatusNew, &model.Customer{ID: "cust-9"})
	assert.True(t, errors.Is(err, ErrVersionConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormSubmissionRepo_List_DefaultLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM form_submissions").
		WithArgs("", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization", "name", "email", "phone", "purpose", "requested_account_count",
			"payment_method", "message", "status", "customer_id", "created_at", "updated_at",
		}).AddRow("sub-1", "さくら病院", "山田", "info@sakura.example", "", "資料請求", 0, "", "", "new", nil, time.Now(), time.Now()))

	subs, err := NewFormSubmissionRepo(db).List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, model.PurposeBrochure, subs[0].Purpose)
	assert.Nil(t, subs[0].CustomerID)
}
