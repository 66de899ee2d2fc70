package model

import "time"

// BillingType selects how many months an invoice covers.
type BillingType string

const (
	BillingTypeMonthly BillingType = "monthly"
	BillingTypeYearly  BillingType = "yearly"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceLine is one billed seat.
type InvoiceLine struct {
	AccountID    string `json:"account_id"`
	AccountEmail string `json:"account_email"`
	ProductID    string `json:"product_id,omitempty"`
	ProductName  string `json:"product_name"`
	UnitPrice    int64  `json:"unit_price"`
	Months       int    `json:"months"`
	Amount       int64  `json:"amount"`
	TaxRate      int    `json:"tax_rate"`
}

// Invoice is a generated billing document, persisted in the invoice ledger.
type Invoice struct {
	ID            string        `db:"id" json:"id"`
	CustomerID    string        `db:"customer_id" json:"customer_id"`
	InvoiceNumber string        `db:"invoice_number" json:"invoice_number"`
	BillingType   BillingType   `db:"billing_type" json:"billing_type"`
	Lines         []InvoiceLine `db:"lines" json:"lines"`
	MonthlyFee    int64         `db:"monthly_fee" json:"monthly_fee"`
	BillingMonths int           `db:"billing_months" json:"billing_months"`
	Subtotal      int64         `db:"subtotal" json:"subtotal"`
	TaxAmount     int64         `db:"tax_amount" json:"tax_amount"`
	TotalAmount   int64         `db:"total_amount" json:"total_amount"`
	IssueDate     time.Time     `db:"issue_date" json:"issue_date"`
	DueDate       time.Time     `db:"due_date" json:"due_date"`
	Status        InvoiceStatus `db:"status" json:"status"`
	DocumentKey   *string       `db:"document_key" json:"document_key,omitempty"`
	EmailSentAt   *time.Time    `db:"email_sent_at" json:"email_sent_at,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// MonthlyRevenue is the invoiced total for one calendar month.
type MonthlyRevenue struct {
	Month  time.Time `json:"month"`
	Amount int64     `json:"amount"`
	Count  int       `json:"count"`
}
