package model

import "time"

// Product is a priced plan offered by the operator. UnitPrice is monthly, in yen.
type Product struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	UnitPrice   int64     `db:"unit_price" json:"unit_price"`
	TaxRate     int       `db:"tax_rate" json:"tax_rate"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
