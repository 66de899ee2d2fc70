package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
)

// CompanyRepository reads and writes the company settings singleton and the
// product catalogue.
type CompanyRepository interface {
	// Get returns the settings with the catalogue attached.
	Get(ctx context.Context) (*model.CompanyInfo, error)
	Update(ctx context.Context, info *model.CompanyInfo, version time.Time) error

	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product, version time.Time) error
	DeactivateProduct(ctx context.Context, id string) error
}

type companyRepo struct {
	db *sql.DB
}

// NewCompanyRepo creates a new CompanyRepository.
func NewCompanyRepo(db *sql.DB) CompanyRepository {
	return &companyRepo{db: db}
}

// Get returns the company settings. A missing row yields the defaults.
func (r *companyRepo) Get(ctx context.Context) (*model.CompanyInfo, error) {
	const query = `
		SELECT name, registration_number, postal_code, address, phone, email, representative,
			bank_name, bank_branch, bank_account_type, bank_account_number, bank_account_holder,
			invoice_prefix, payment_term_days, default_tax_rate, use_product_tax_rate, updated_at
		FROM company_settings
		WHERE id = 1
	`
	var c model.CompanyInfo
	err := r.db.QueryRowContext(ctx, query).Scan(
		&c.Name, &c.RegistrationNumber, &c.PostalCode, &c.Address, &c.Phone, &c.Email, &c.Representative,
		&c.BankName, &c.BankBranch, &c.BankAccountType, &c.BankAccountNumber, &c.BankAccountHolder,
		&c.InvoicePrefix, &c.PaymentTermDays, &c.DefaultTaxRate, &c.UseProductTaxRate, &c.UpdatedAt,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch company settings: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		c = model.CompanyInfo{InvoicePrefix: "INV", PaymentTermDays: 30, DefaultTaxRate: 10}
	}

	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.Products = products
	return &c, nil
}

// Update overwrites the settings row.
func (r *companyRepo) Update(ctx context.Context, c *model.CompanyInfo, version time.Time) error {
	const query = `
		UPDATE company_settings
		SET name = $1, registration_number = $2, postal_code = $3, address = $4, phone = $5, email = $6,
			representative = $7, bank_name = $8, bank_branch = $9, bank_account_type = $10,
			bank_account_number = $11, bank_account_holder = $12, invoice_prefix = $13,
			payment_term_days = $14, default_tax_rate = $15, use_product_tax_rate = $16, updated_at = NOW()
		WHERE id = 1 AND updated_at = $17
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.RegistrationNumber, c.PostalCode, c.Address, c.Phone, c.Email,
		c.Representative, c.BankName, c.BankBranch, c.BankAccountType,
		c.BankAccountNumber, c.BankAccountHolder, c.InvoicePrefix,
		c.PaymentTermDays, c.DefaultTaxRate, c.UseProductTaxRate, version,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update company settings: %w", ErrVersionConflict)
		}
		return fmt.Errorf("update company settings: %w", err)
	}
	return nil
}

const productColumns = `id, name, description, unit_price, tax_rate, is_active, sort_order, created_at, updated_at`

func scanProduct(row rowScanner) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UnitPrice, &p.TaxRate, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the catalogue in display order. The order matters: the
// first active product is the default price of unassigned seats.
func (r *companyRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY sort_order, created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products rows: %w", err)
	}
	return products, nil
}

// GetProduct returns a product or nil if it does not exist.
func (r *companyRepo) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch product %s: %w", id, err)
	}
	return p, nil
}

// CreateProduct inserts a product.
func (r *companyRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	const query = `
		INSERT INTO products (id, name, description, unit_price, tax_rate, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Description, p.UnitPrice, p.TaxRate, p.IsActive, p.SortOrder).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.Name, err)
	}
	return nil
}

// UpdateProduct overwrites a product in place.
func (r *companyRepo) UpdateProduct(ctx context.Context, p *model.Product, version time.Time) error {
	const query = `
		UPDATE products
		SET name = $2, description = $3, unit_price = $4, tax_rate = $5, is_active = $6, sort_order = $7, updated_at = NOW()
		WHERE id = $1 AND updated_at = $8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Description, p.UnitPrice, p.TaxRate, p.IsActive, p.SortOrder, version).
		Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("update product %s: %w", p.ID, ErrVersionConflict)
		}
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}
	return nil
}

// DeactivateProduct hides a product from new assignments. Products are never
// deleted because seats and invoices reference them.
func (r *companyRepo) DeactivateProduct(ctx context.Context, id string) error {
	const query = `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate product %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("deactivate product %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
