package dto

import (
	"time"

	"backoffice/internal/model"
)

// InvoiceGenerateDTO is used to generate an invoice for a customer
type InvoiceGenerateDTO struct {
	BillingType string     `json:"billing_type" validate:"required,oneof=monthly yearly"`
	IssueDate   *time.Time `json:"issue_date,omitempty"`
	SendEmail   bool       `json:"send_email"`
}

// InvoiceStatusDTO is used for manual invoice status changes
type InvoiceStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=paid overdue"`
}

// InvoiceLineDTO is one billed seat
type InvoiceLineDTO struct {
	AccountID    string `json:"account_id"`
	AccountEmail string `json:"account_email"`
	ProductName  string `json:"product_name"`
	UnitPrice    int64  `json:"unit_price"`
	Months       int    `json:"months"`
	Amount       int64  `json:"amount"`
	TaxRate      int    `json:"tax_rate"`
}

// InvoiceResponseDTO is returned in API responses for invoices
type InvoiceResponseDTO struct {
	ID            string           `json:"id"`
	CustomerID    string           `json:"customer_id"`
	InvoiceNumber string           `json:"invoice_number"`
	BillingType   string           `json:"billing_type"`
	Lines         []InvoiceLineDTO `json:"lines"`
	MonthlyFee    int64            `json:"monthly_fee"`
	BillingMonths int              `json:"billing_months"`
	Subtotal      int64            `json:"subtotal"`
	TaxAmount     int64            `json:"tax_amount"`
	TotalAmount   int64            `json:"total_amount"`
	IssueDate     time.Time        `json:"issue_date"`
	DueDate       time.Time        `json:"due_date"`
	Status        string           `json:"status"`
	HasDocument   bool             `json:"has_document"`
	EmailSentAt   *time.Time       `json:"email_sent_at,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// NewInvoiceResponse maps an invoice
func NewInvoiceResponse(inv *model.Invoice) InvoiceResponseDTO {
	resp := InvoiceResponseDTO{
		ID:            inv.ID,
		CustomerID:    inv.CustomerID,
		InvoiceNumber: inv.InvoiceNumber,
		BillingType:   string(inv.BillingType),
		Lines:         make([]InvoiceLineDTO, 0, len(inv.Lines)),
		MonthlyFee:    inv.MonthlyFee,
		BillingMonths: inv.BillingMonths,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Status:        string(inv.Status),
		HasDocument:   inv.DocumentKey != nil,
		EmailSentAt:   inv.EmailSentAt,
		PaidAt:        inv.PaidAt,
		CreatedAt:     inv.CreatedAt,
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineDTO{
			AccountID:    l.AccountID,
			AccountEmail: l.AccountEmail,
			ProductName:  l.ProductName,
			UnitPrice:    l.UnitPrice,
			Months:       l.Months,
			Amount:       l.Amount,
			TaxRate:      l.TaxRate,
		})
	}
	return resp
}

// URLResponseDTO wraps a link returned by the API
type URLResponseDTO struct {
	URL string `json:"url"`
}
