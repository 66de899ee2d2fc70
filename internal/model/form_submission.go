package model

import "time"

// SubmissionPurpose is what the applicant asked for.
type SubmissionPurpose string

const (
	PurposeApplication SubmissionPurpose = "お申し込み"
	PurposeBrochure    SubmissionPurpose = "資料請求"
	PurposeOther       SubmissionPurpose = "その他"
)

// SubmissionStatus tracks how far an inquiry has been handled.
type SubmissionStatus string

const (
	SubmissionStatusNew       SubmissionStatus = "new"
	SubmissionStatusContacted SubmissionStatus = "contacted"
	SubmissionStatusConverted SubmissionStatus = "converted"
	SubmissionStatusClosed    SubmissionStatus = "closed"
)

// FormSubmission is a raw inquiry from the public application form.
type FormSubmission struct {
	ID                    string            `db:"id" json:"id"`
	Organization          string            `db:"organization" json:"organization"`
	Name                  string            `db:"name" json:"name"`
	Email                 string            `db:"email" json:"email"`
	Phone                 string            `db:"phone" json:"phone"`
	Purpose               SubmissionPurpose `db:"purpose" json:"purpose"`
	RequestedAccountCount int               `db:"requested_account_count" json:"requested_account_count"`
	PaymentMethod         PaymentMethod     `db:"payment_method" json:"payment_method"`
	Message               string            `db:"message" json:"message"`
	Status                SubmissionStatus  `db:"status" json:"status"`
	CustomerID            *string           `db:"customer_id" json:"customer_id,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time         `db:"updated_at" json:"updated_at"`
}
