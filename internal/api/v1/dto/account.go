package dto

import (
	"time"

	"backoffice/internal/model"
)

// AccountLinkDTO is used to link a ChatGPT seat to a customer
type AccountLinkDTO struct {
	Email              string     `json:"email" validate:"required,email"`
	Status             string     `json:"status" validate:"omitempty,oneof=active suspended expired"`
	ProductID          *string    `json:"product_id,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	SubscriptionMonths *int       `json:"subscription_months,omitempty" validate:"omitempty,gte=1,lte=120"`
	Credential         string     `json:"credential,omitempty" validate:"max=500"`
}

// ToModel maps the request onto an account
func (d AccountLinkDTO) ToModel() *model.Account {
	a := &model.Account{
		Email:              d.Email,
		Status:             model.AccountStatus(d.Status),
		ProductID:          d.ProductID,
		SubscriptionMonths: d.SubscriptionMonths,
	}
	if d.StartDate != nil {
		a.StartDate = *d.StartDate
	}
	return a
}

// AccountUpdateDTO carries the editable state of a seat and the version read by the client
type AccountUpdateDTO struct {
	Email              string     `json:"email" validate:"required,email"`
	Status             string     `json:"status" validate:"omitempty,oneof=active suspended expired"`
	ProductID          *string    `json:"product_id,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	SubscriptionMonths *int       `json:"subscription_months,omitempty" validate:"omitempty,gte=1,lte=120"`
	Version            time.Time  `json:"version" validate:"required"`
}

// ToModel maps the request onto an account with the given id
func (d AccountUpdateDTO) ToModel(id string) *model.Account {
	a := AccountLinkDTO{
		Email:              d.Email,
		Status:             d.Status,
		ProductID:          d.ProductID,
		StartDate:          d.StartDate,
		SubscriptionMonths: d.SubscriptionMonths,
	}.ToModel()
	a.ID = id
	return a
}

// CredentialDTO carries a seat password
type CredentialDTO struct {
	Credential string `json:"credential" validate:"required,max=500"`
}

// AccountResponseDTO is returned in API responses for seats
type AccountResponseDTO struct {
	ID                 string    `json:"id"`
	CustomerID         string    `json:"customer_id"`
	Email              string    `json:"email"`
	Status             string    `json:"status"`
	ProductID          *string   `json:"product_id,omitempty"`
	StartDate          time.Time `json:"start_date"`
	SubscriptionMonths *int      `json:"subscription_months,omitempty"`
	ExpiresAt          time.Time `json:"expires_at"`
	HasCredential      bool      `json:"has_credential"`
	Version            time.Time `json:"version"`
}

// NewAccountResponse maps a seat
func NewAccountResponse(a *model.Account) AccountResponseDTO {
	return AccountResponseDTO{
		ID:                 a.ID,
		CustomerID:         a.CustomerID,
		Email:              a.Email,
		Status:             string(a.Status),
		ProductID:          a.ProductID,
		StartDate:          a.StartDate,
		SubscriptionMonths: a.SubscriptionMonths,
		ExpiresAt:          a.ExpiresAt,
		HasCredential:      a.HasCredential,
		Version:            a.UpdatedAt,
	}
}
