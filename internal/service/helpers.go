package service

import (
	"context"
	"database/sql"
	"errors"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// loadCustomer returns the customer with its seats attached.
func loadCustomer(ctx context.Context, customers repository.CustomerRepository, accounts repository.AccountRepository, id string) (*model.Customer, error) {
	c, err := customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	seats, err := accounts.ListByCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Accounts = seats
	return c, nil
}
