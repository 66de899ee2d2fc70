package dto

import (
	"time"

	"backoffice/internal/model"
)

// CompanyUpdateDTO is used to update the company settings
type CompanyUpdateDTO struct {
	Name               string    `json:"name" validate:"max=200"`
	RegistrationNumber string    `json:"registration_number" validate:"omitempty,startswith=T,len=14"`
	PostalCode         string    `json:"postal_code" validate:"max=10"`
	Address            string    `json:"address" validate:"max=300"`
	Phone              string    `json:"phone" validate:"max=30"`
	Email              string    `json:"email" validate:"omitempty,email"`
	Representative     string    `json:"representative" validate:"max=100"`
	BankName           string    `json:"bank_name" validate:"max=100"`
	BankBranch         string    `json:"bank_branch" validate:"max=100"`
	BankAccountType    string    `json:"bank_account_type" validate:"max=20"`
	BankAccountNumber  string    `json:"bank_account_number" validate:"omitempty,numeric,max=20"`
	BankAccountHolder  string    `json:"bank_account_holder" validate:"max=100"`
	InvoicePrefix      string    `json:"invoice_prefix" validate:"max=20"`
	PaymentTermDays    int       `json:"payment_term_days" validate:"gte=0,lte=365"`
	DefaultTaxRate     int       `json:"default_tax_rate" validate:"gte=0,lte=100"`
	UseProductTaxRate  bool      `json:"use_product_tax_rate"`
	Version            time.Time `json:"version"`
}

// ToModel maps the request onto company settings
func (d CompanyUpdateDTO) ToModel() *model.CompanyInfo {
	return &model.CompanyInfo{
		Name:               d.Name,
		RegistrationNumber: d.RegistrationNumber,
		PostalCode:         d.PostalCode,
		Address:            d.Address,
		Phone:              d.Phone,
		Email:              d.Email,
		Representative:     d.Representative,
		BankName:           d.BankName,
		BankBranch:         d.BankBranch,
		BankAccountType:    d.BankAccountType,
		BankAccountNumber:  d.BankAccountNumber,
		BankAccountHolder:  d.BankAccountHolder,
		InvoicePrefix:      d.InvoicePrefix,
		PaymentTermDays:    d.PaymentTermDays,
		DefaultTaxRate:     d.DefaultTaxRate,
		UseProductTaxRate:  d.UseProductTaxRate,
	}
}

// ProductDTO is used to create or update a product
type ProductDTO struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description" validate:"max=1000"`
	UnitPrice   int64     `json:"unit_price" validate:"gte=0"`
	TaxRate     int       `json:"tax_rate" validate:"gte=0,lte=100"`
	IsActive    *bool     `json:"is_active,omitempty"`
	SortOrder   int       `json:"sort_order"`
	Version     time.Time `json:"version"`
}

// ToModel maps the request onto a product
func (d ProductDTO) ToModel() *model.Product {
	p := &model.Product{
		Name:        d.Name,
		Description: d.Description,
		UnitPrice:   d.UnitPrice,
		TaxRate:     d.TaxRate,
		IsActive:    true,
		SortOrder:   d.SortOrder,
	}
	if d.IsActive != nil {
		p.IsActive = *d.IsActive
	}
	return p
}

// ProductResponseDTO is returned in API responses for products
type ProductResponseDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UnitPrice   int64     `json:"unit_price"`
	TaxRate     int       `json:"tax_rate"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	Version     time.Time `json:"version"`
}

func NewProductResponse(p *model.Product) ProductResponseDTO {
	return ProductResponseDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		TaxRate:     p.TaxRate,
		IsActive:    p.IsActive,
		SortOrder:   p.SortOrder,
		Version:     p.UpdatedAt,
	}
}

// CompanyResponseDTO is returned for the company settings
type CompanyResponseDTO struct {
	CompanyUpdateDTO
	Products []ProductResponseDTO `json:"products"`
}

func NewCompanyResponse(c *model.CompanyInfo) CompanyResponseDTO {
	resp := CompanyResponseDTO{
		CompanyUpdateDTO: CompanyUpdateDTO{
			Name:               c.Name,
			RegistrationNumber: c.RegistrationNumber,
			PostalCode:         c.PostalCode,
			Address:            c.Address,
			Phone:              c.Phone,
			Email:              c.Email,
			Representative:     c.Representative,
			BankName:           c.BankName,
			BankBranch:         c.BankBranch,
			BankAccountType:    c.BankAccountType,
			BankAccountNumber:  c.BankAccountNumber,
			BankAccountHolder:  c.BankAccountHolder,
			InvoicePrefix:      c.InvoicePrefix,
			PaymentTermDays:    c.PaymentTermDays,
			DefaultTaxRate:     c.DefaultTaxRate,
			UseProductTaxRate:  c.UseProductTaxRate,
			Version:            c.UpdatedAt,
		},
		Products: make([]ProductResponseDTO, 0, len(c.Products)),
	}
	for i := range c.Products {
		resp.Products = append(resp.Products, NewProductResponse(&c.Products[i]))
	}
	return resp
}
