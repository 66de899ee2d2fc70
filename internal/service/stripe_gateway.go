package service

import (
	"context"
	"fmt"

	"backoffice/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	customerpkg "github.com/stripe/stripe-go/v82/customer"
)

// StripeGateway creates Stripe customers and Checkout payment links.
type StripeGateway struct {
	returnURL string
	logger    zerolog.Logger
}

// NewStripeGateway sets the Stripe key and returns a gateway with a scoped logger.
func NewStripeGateway(secretKey, returnURL string, logger zerolog.Logger) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		returnURL: returnURL,
		logger:    logger.With().Str("service", "StripeGateway").Logger(),
	}
}

// CreateCustomer registers the customer with Stripe and returns its id.
func (g *StripeGateway) CreateCustomer(ctx context.Context, c *model.Customer) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(c.Email),
		Name:     stripe.String(c.Organization),
		Metadata: map[string]string{"customer_id": c.ID},
	}
	params.Context = ctx
	cust, err := customerpkg.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("customer_id", c.ID).Msg("Failed to create Stripe customer")
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreatePaymentLink opens a one-off Checkout session for the invoice total in yen.
func (g *StripeGateway) CreatePaymentLink(ctx context.Context, inv *model.Invoice, c *model.Customer) (string, error) {
	metadata := map[string]string{"invoice_id": inv.ID, "customer_id": inv.CustomerID}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyJPY)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("請求書 " + inv.InvoiceNumber),
				},
				UnitAmount: stripe.Int64(inv.TotalAmount),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(g.returnURL + "?invoice=" + inv.ID + "&status=success"),
		CancelURL:         stripe.String(g.returnURL + "?invoice=" + inv.ID + "&status=cancel"),
		ClientReferenceID: stripe.String(inv.ID),
		Metadata:          metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata},
	}
	if c != nil && c.StripeCustomerID != nil && *c.StripeCustomerID != "" {
		params.Customer = c.StripeCustomerID
	} else if c != nil && c.Email != "" {
		params.CustomerEmail = stripe.String(c.Email)
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("invoice_id", inv.ID).Msg("Failed to create Stripe checkout session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}
