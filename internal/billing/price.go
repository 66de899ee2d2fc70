// Package billing holds the pricing, seat lifecycle and invoice assembly rules
// shared by every part of the back office. Nothing here performs I/O.
package billing

import (
	"sort"

	"backoffice/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// FallbackUnitPrice is the monthly yen price used when no product applies.
	FallbackUnitPrice int64 = 20000
	// FallbackProductName labels lines priced at FallbackUnitPrice.
	FallbackProductName = "ChatGPT Plus"
	// DefaultSubscriptionMonths applies when neither the seat nor the customer sets a length.
	DefaultSubscriptionMonths = 12
	// DefaultTaxRate is the consumption tax rate in percent.
	DefaultTaxRate = 10
)

// TaxPolicy decides which rate applies to a line.
type TaxPolicy struct {
	DefaultRate    int
	UseProductRate bool
}

// PolicyFor builds the tax policy configured on the company.
func PolicyFor(company *model.CompanyInfo) TaxPolicy {
	p := TaxPolicy{DefaultRate: DefaultTaxRate}
	if company == nil {
		return p
	}
	if company.DefaultTaxRate > 0 {
		p.DefaultRate = company.DefaultTaxRate
	}
	p.UseProductRate = company.UseProductTaxRate
	return p
}

func (p TaxPolicy) rateFor(product *model.Product) int {
	rate := p.DefaultRate
	if rate <= 0 {
		rate = DefaultTaxRate
	}
	if p.UseProductRate && product != nil && product.TaxRate > 0 {
		return product.TaxRate
	}
	return rate
}

func findProduct(catalogue []model.Product, id *string) *model.Product {
	if id == nil || *id == "" {
		return nil
	}
	for i := range catalogue {
		if catalogue[i].ID == *id {
			return &catalogue[i]
		}
	}
	return nil
}

// ResolveProduct returns the product that prices the account: the product
// assigned to the seat, then the customer's default product, then the first
// active product in the catalogue. It returns nil when none applies.
func ResolveProduct(account *model.Account, customer *model.Customer, catalogue []model.Product) *model.Product {
	if account != nil {
		if p := findProduct(catalogue, account.ProductID); p != nil {
			return p
		}
	}
	if customer != nil {
		if p := findProduct(catalogue, customer.DefaultProductID); p != nil {
			return p
		}
	}
	for i := range catalogue {
		if catalogue[i].IsActive {
			return &catalogue[i]
		}
	}
	return nil
}

// ResolveUnitPrice returns the monthly yen price of one seat.
func ResolveUnitPrice(account *model.Account, customer *model.Customer, catalogue []model.Product) int64 {
	if p := ResolveProduct(account, customer, catalogue); p != nil {
		return p.UnitPrice
	}
	return FallbackUnitPrice
}

// ResolveMonths returns the subscription length of a seat in months.
func ResolveMonths(account *model.Account, customer *model.Customer) int {
	if account != nil && account.SubscriptionMonths != nil && *account.SubscriptionMonths > 0 {
		return *account.SubscriptionMonths
	}
	if customer != nil && customer.SubscriptionMonths > 0 {
		return customer.SubscriptionMonths
	}
	return DefaultSubscriptionMonths
}

// Billable reports whether the seat is charged.
func Billable(a *model.Account) bool {
	return a != nil && a.Status == model.AccountStatusActive
}

// MonthlyTotal sums the unit price of every billable seat.
func MonthlyTotal(customer *model.Customer, catalogue []model.Product) int64 {
	if customer == nil {
		return 0
	}
	var total int64
	for i := range customer.Accounts {
		a := &customer.Accounts[i]
		if !Billable(a) {
			continue
		}
		total += ResolveUnitPrice(a, customer, catalogue)
	}
	return total
}

// PeriodTotal sums unit price times subscription months of every billable seat.
func PeriodTotal(customer *model.Customer, catalogue []model.Product) int64 {
	if customer == nil {
		return 0
	}
	var total int64
	for i := range customer.Accounts {
		a := &customer.Accounts[i]
		if !Billable(a) {
			continue
		}
		total += ResolveUnitPrice(a, customer, catalogue) * int64(ResolveMonths(a, customer))
	}
	return total
}

// Tax returns floor(subtotal × ratePercent / 100).
func Tax(subtotal int64, ratePercent int) int64 {
	if subtotal <= 0 || ratePercent <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(int64(ratePercent))).
		Div(decimal.NewFromInt(100)).
		Floor().
		IntPart()
}

// DisplayedMonthlyRevenue is what the dashboard reports for a customer. Only
// active customers generate revenue; trial customers never do.
func DisplayedMonthlyRevenue(customer *model.Customer, catalogue []model.Product) int64 {
	if customer == nil || customer.Status != model.CustomerStatusActive {
		return 0
	}
	return MonthlyTotal(customer, catalogue)
}

// Quote is a priced breakdown of a customer's billable seats.
type Quote struct {
	BillingType   model.BillingType   `json:"billing_type"`
	Lines         []model.InvoiceLine `json:"lines"`
	MonthlyTotal  int64               `json:"monthly_total"`
	BillingMonths int                 `json:"billing_months"`
	Subtotal      int64               `json:"subtotal"`
	Tax           int64               `json:"tax"`
	Total         int64               `json:"total"`
	TaxRate       int                 `json:"tax_rate"`
}

// NewQuote prices every billable seat of the customer. Monthly billing charges
// one month per seat; yearly billing charges each seat's subscription length,
// and the header months are the longest line.
func NewQuote(customer *model.Customer, catalogue []model.Product, billingType model.BillingType, policy TaxPolicy) Quote {
	if billingType != model.BillingTypeYearly {
		billingType = model.BillingTypeMonthly
	}
	q := Quote{
		BillingType:   billingType,
		Lines:         []model.InvoiceLine{},
		BillingMonths: 1,
		TaxRate:       policy.rateFor(nil),
	}
	if billingType == model.BillingTypeYearly {
		q.BillingMonths = ResolveMonths(nil, customer)
	}
	if customer == nil {
		return q
	}

	byRate := map[int]int64{}
	for i := range customer.Accounts {
		a := &customer.Accounts[i]
		if !Billable(a) {
			continue
		}
		product := ResolveProduct(a, customer, catalogue)
		line := model.InvoiceLine{
			AccountID:    a.ID,
			AccountEmail: a.Email,
			ProductName:  FallbackProductName,
			UnitPrice:    FallbackUnitPrice,
			Months:       1,
			TaxRate:      policy.rateFor(product),
		}
		if product != nil {
			line.ProductID = product.ID
			line.ProductName = product.Name
			line.UnitPrice = product.UnitPrice
		}
		if billingType == model.BillingTypeYearly {
			line.Months = ResolveMonths(a, customer)
			if len(q.Lines) == 0 || line.Months > q.BillingMonths {
				q.BillingMonths = line.Months
			}
		}
		line.Amount = line.UnitPrice * int64(line.Months)

		q.Lines = append(q.Lines, line)
		q.MonthlyTotal += line.UnitPrice
		q.Subtotal += line.Amount
		byRate[line.TaxRate] += line.Amount
	}

	rates := make([]int, 0, len(byRate))
	for r := range byRate {
		rates = append(rates, r)
	}
	sort.Ints(rates)
	for _, r := range rates {
		q.Tax += Tax(byRate[r], r)
	}
	q.Total = q.Subtotal + q.Tax
	return q
}
