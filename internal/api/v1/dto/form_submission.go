package dto

import (
	"time"

	"backoffice/internal/model"
)

// FormSubmissionCreateDTO is the public application form payload
type FormSubmissionCreateDTO struct {
	Organization          string `json:"organization" validate:"required,max=200"`
	Name                  string `json:"name" validate:"required,max=100"`
	Email                 string `json:"email" validate:"required,email"`
	Phone                 string `json:"phone" validate:"max=30"`
	Purpose               string `json:"purpose" validate:"required,oneof=お申し込み 資料請求 その他"`
	RequestedAccountCount int    `json:"requested_account_count" validate:"gte=0,lte=1000"`
	PaymentMethod         string `json:"payment_method" validate:"omitempty,oneof=invoice bank_transfer card"`
	Message               string `json:"message" validate:"max=4000"`
}

// ToModel maps the request onto a submission
func (d FormSubmissionCreateDTO) ToModel() *model.FormSubmission {
	return &model.FormSubmission{
		Organization:          d.Organization,
		Name:                  d.Name,
		Email:                 d.Email,
		Phone:                 d.Phone,
		Purpose:               model.SubmissionPurpose(d.Purpose),
		RequestedAccountCount: d.RequestedAccountCount,
		PaymentMethod:         model.PaymentMethod(d.PaymentMethod),
		Message:               d.Message,
	}
}

// FormSubmissionStatusDTO is used to move a submission between statuses
type FormSubmissionStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=new contacted closed"`
}

// FormSubmissionResponseDTO is returned in API responses for submissions
type FormSubmissionResponseDTO struct {
	ID                    string    `json:"id"`
	Organization          string    `json:"organization"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	Purpose               string    `json:"purpose"`
	RequestedAccountCount int       `json:"requested_account_count"`
	PaymentMethod         string    `json:"payment_method"`
	Message               string    `json:"message"`
	Status                string    `json:"status"`
	CustomerID            *string   `json:"customer_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

func NewFormSubmissionResponse(s *model.FormSubmission) FormSubmissionResponseDTO {
	return FormSubmissionResponseDTO{
		ID:                    s.ID,
		Organization:          s.Organization,
		Name:                  s.Name,
		Email:                 s.Email,
		Phone:                 s.Phone,
		Purpose:               string(s.Purpose),
		RequestedAccountCount: s.RequestedAccountCount,
		PaymentMethod:         string(s.PaymentMethod),
		Message:               s.Message,
		Status:                string(s.Status),
		CustomerID:            s.CustomerID,
		CreatedAt:             s.CreatedAt,
	}
}

// FormSubmissionAckDTO is returned to the public form
type FormSubmissionAckDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
