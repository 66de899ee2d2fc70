package model

import "time"

// AccountStatus is the single tagged state of a seat. The legacy is_active
// column is derived from it when persisted.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusExpired   AccountStatus = "expired"
)

// Valid reports whether s is a known account status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusSuspended, AccountStatusExpired:
		return true
	}
	return false
}

// Account is one ChatGPT seat managed on behalf of a customer.
type Account struct {
	ID                 string        `db:"id" json:"id"`
	CustomerID         string        `db:"customer_id" json:"customer_id"`
	Email              string        `db:"email" json:"email"`
	Status             AccountStatus `db:"status" json:"status"`
	ProductID          *string       `db:"product_id" json:"product_id,omitempty"`
	StartDate          time.Time     `db:"start_date" json:"start_date"`
	SubscriptionMonths *int          `db:"subscription_months" json:"subscription_months,omitempty"`
	ExpiresAt          time.Time     `db:"expires_at" json:"expires_at"`
	HasCredential      bool          `db:"has_credential" json:"has_credential"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}
