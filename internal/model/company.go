package model

import "time"

// CompanyInfo describes the reseller itself: legal details printed on invoices,
// bank details for transfers, invoicing policy and the product catalogue.
type CompanyInfo struct {
	Name               string    `db:"name" json:"name"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number"`
	PostalCode         string    `db:"postal_code" json:"postal_code"`
	Address            string    `db:"address" json:"address"`
	Phone              string    `db:"phone" json:"phone"`
	Email              string    `db:"email" json:"email"`
	Representative     string    `db:"representative" json:"representative"`
	BankName           string    `db:"bank_name" json:"bank_name"`
	BankBranch         string    `db:"bank_branch" json:"bank_branch"`
	BankAccountType    string    `db:"bank_account_type" json:"bank_account_type"`
	BankAccountNumber  string    `db:"bank_account_number" json:"bank_account_number"`
	BankAccountHolder  string    `db:"bank_account_holder" json:"bank_account_holder"`
	InvoicePrefix      string    `db:"invoice_prefix" json:"invoice_prefix"`
	PaymentTermDays    int       `db:"payment_term_days" json:"payment_term_days"`
	DefaultTaxRate     int       `db:"default_tax_rate" json:"default_tax_rate"`
	UseProductTaxRate  bool      `db:"use_product_tax_rate" json:"use_product_tax_rate"`
	Products           []Product `db:"-" json:"products"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
