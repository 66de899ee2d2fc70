package model

import "time"

// CustomerStatus is the contract state of a customer.
type CustomerStatus string

const (
	CustomerStatusTrial     CustomerStatus = "trial"
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusCancelled CustomerStatus = "cancelled"
)

// Valid reports whether s is a known customer status.
func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerStatusTrial, CustomerStatusActive, CustomerStatusSuspended, CustomerStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how a customer settles invoices.
type PaymentMethod string

const (
	PaymentMethodInvoice      PaymentMethod = "invoice"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
)

// Customer is a contracting organization and its seats.
type Customer struct {
	ID                 string         `db:"id" json:"id"`
	Email              string         `db:"email" json:"email"`
	Organization       string         `db:"organization" json:"organization"`
	ContactName        string         `db:"contact_name" json:"contact_name"`
	Phone              string         `db:"phone" json:"phone"`
	Status             CustomerStatus `db:"status" json:"status"`
	Plan               string         `db:"plan" json:"plan"`
	PaymentMethod      PaymentMethod  `db:"payment_method" json:"payment_method"`
	DefaultProductID   *string        `db:"default_product_id" json:"default_product_id,omitempty"`
	RegisteredAt       time.Time      `db:"registered_at" json:"registered_at"`
	SubscriptionMonths int            `db:"subscription_months" json:"subscription_months"`
	ExpiresAt          time.Time      `db:"expires_at" json:"expires_at"`
	LastActivityAt     *time.Time     `db:"last_activity_at" json:"last_activity_at,omitempty"`
	StripeCustomerID   *string        `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	Notes              string         `db:"notes" json:"notes"`
	Accounts           []Account      `db:"-" json:"accounts"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// CustomerFilter narrows customer listings.
type CustomerFilter struct {
	Status CustomerStatus
	Query  string
	Limit  int
	Offset int
}
