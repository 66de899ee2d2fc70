package dto

import (
	"time"

	"backoffice/internal/model"
)

// CustomerCreateDTO is used for incoming customer creation requests
type CustomerCreateDTO struct {
	Email              string     `json:"email" validate:"omitempty,email"`
	Organization       string     `json:"organization" validate:"required,max=200"`
	ContactName        string     `json:"contact_name" validate:"max=100"`
	Phone              string     `json:"phone" validate:"max=30"`
	Status             string     `json:"status" validate:"omitempty,oneof=trial active suspended cancelled"`
	Plan               string     `json:"plan" validate:"max=100"`
	PaymentMethod      string     `json:"payment_method" validate:"omitempty,oneof=invoice bank_transfer card"`
	DefaultProductID   *string    `json:"default_product_id,omitempty"`
	RegisteredAt       *time.Time `json:"registered_at,omitempty"`
	SubscriptionMonths int        `json:"subscription_months" validate:"gte=0,lte=120"`
	Notes              string     `json:"notes" validate:"max=4000"`
}

// CustomerUpdateDTO carries the full editable state plus the version read by the client
type CustomerUpdateDTO struct {
	CustomerCreateDTO
	Version time.Time `json:"version" validate:"required"`
}

// ToModel maps the request onto a customer
func (d CustomerCreateDTO) ToModel() *model.Customer {
	c := &model.Customer{
		Email:              d.Email,
		Organization:       d.Organization,
		ContactName:        d.ContactName,
		Phone:              d.Phone,
		Status:             model.CustomerStatus(d.Status),
		Plan:               d.Plan,
		PaymentMethod:      model.PaymentMethod(d.PaymentMethod),
		DefaultProductID:   d.DefaultProductID,
		SubscriptionMonths: d.SubscriptionMonths,
		Notes:              d.Notes,
	}
	if d.RegisteredAt != nil {
		c.RegisteredAt = *d.RegisteredAt
	}
	return c
}

// StatusChangeDTO is used for status updates guarded by a version
type StatusChangeDTO struct {
	Status  string    `json:"status" validate:"required"`
	Version time.Time `json:"version" validate:"required"`
}

// CustomerResponseDTO is returned in API responses for customers
type CustomerResponseDTO struct {
	ID                 string               `json:"id"`
	Email              string               `json:"email"`
	Organization       string               `json:"organization"`
	ContactName        string               `json:"contact_name"`
	Phone              string               `json:"phone"`
	Status             string               `json:"status"`
	Plan               string               `json:"plan"`
	PaymentMethod      string               `json:"payment_method"`
	DefaultProductID   *string              `json:"default_product_id,omitempty"`
	RegisteredAt       time.Time            `json:"registered_at"`
	SubscriptionMonths int                  `json:"subscription_months"`
	ExpiresAt          time.Time            `json:"expires_at"`
	LastActivityAt     *time.Time           `json:"last_activity_at,omitempty"`
	HasStripeCustomer  bool                 `json:"has_stripe_customer"`
	Notes              string               `json:"notes"`
	Accounts           []AccountResponseDTO `json:"accounts,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	Version            time.Time            `json:"version"`
}

// NewCustomerResponse maps a customer and its accounts
func NewCustomerResponse(c *model.Customer) CustomerResponseDTO {
	resp := CustomerResponseDTO{
		ID:                 c.ID,
		Email:              c.Email,
		Organization:       c.Organization,
		ContactName:        c.ContactName,
		Phone:              c.Phone,
		Status:             string(c.Status),
		Plan:               c.Plan,
		PaymentMethod:      string(c.PaymentMethod),
		DefaultProductID:   c.DefaultProductID,
		RegisteredAt:       c.RegisteredAt,
		SubscriptionMonths: c.SubscriptionMonths,
		ExpiresAt:          c.ExpiresAt,
		LastActivityAt:     c.LastActivityAt,
		HasStripeCustomer:  c.StripeCustomerID != nil,
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt,
		Version:            c.UpdatedAt,
	}
	for i := range c.Accounts {
		resp.Accounts = append(resp.Accounts, NewAccountResponse(&c.Accounts[i]))
	}
	return resp
}
