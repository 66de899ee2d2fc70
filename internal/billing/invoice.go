package billing

import (
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
)

const (
	DefaultInvoicePrefix   = "INV"
	DefaultPaymentTermDays = 30
)

// InvoiceNumber stamps prefix-unixMillis.
func InvoiceNumber(prefix string, issued time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return fmt.Sprintf("%s-%d", prefix, issued.UnixMilli())
}

// DueDate is the issue date plus the payment term in calendar days.
func DueDate(issued time.Time, termDays int) time.Time {
	if termDays <= 0 {
		termDays = DefaultPaymentTermDays
	}
	return issued.AddDate(0, 0, termDays)
}

// AssembleInvoice builds a draft invoice for the customer's billable seats.
// The caller assigns the id and persists it.
func AssembleInvoice(customer *model.Customer, company *model.CompanyInfo, billingType model.BillingType, issued time.Time) *model.Invoice {
	var (
		catalogue []model.Product
		prefix    string
		term      int
	)
	if company != nil {
		catalogue = company.Products
		prefix = company.InvoicePrefix
		term = company.PaymentTermDays
	}
	q := NewQuote(customer, catalogue, billingType, PolicyFor(company))

	inv := &model.Invoice{
		InvoiceNumber: InvoiceNumber(prefix, issued),
		BillingType:   q.BillingType,
		Lines:         q.Lines,
		MonthlyFee:    q.MonthlyTotal,
		BillingMonths: q.BillingMonths,
		Subtotal:      q.Subtotal,
		TaxAmount:     q.Tax,
		TotalAmount:   q.Total,
		IssueDate:     issued,
		DueDate:       DueDate(issued, term),
		Status:        model.InvoiceStatusDraft,
	}
	if customer != nil {
		inv.CustomerID = customer.ID
	}
	return inv
}
