package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"backoffice/internal/billing"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBodyBytes = 65536

// StripeWebhook marks invoices paid when Stripe reports a completed Checkout.
type StripeWebhook struct {
	invoices InvoiceService
	secret   string
	logger   zerolog.Logger
}

func NewStripeWebhook(invoices InvoiceService, webhookSecret string, logger zerolog.Logger) *StripeWebhook {
	return &StripeWebhook{
		invoices: invoices,
		secret:   webhookSecret,
		logger:   logger.With().Str("service", "StripeWebhook").Logger(),
	}
}

// HandleWebhook processes Stripe webhook events
func (s *StripeWebhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read Stripe webhook payload")
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	sig := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, s.secret)
	if err != nil {
		s.logger.Error().Err(err).Msg("Signature verification failed for Stripe webhook")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}
	s.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			s.logger.Error().Err(err).Msg("Invalid checkout.session data")
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		if cs.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			s.logger.Info().Str("session_id", cs.ID).Str("payment_status", string(cs.PaymentStatus)).Msg("Checkout session not paid yet")
			break
		}
		invoiceID := cs.Metadata["invoice_id"]
		if invoiceID == "" {
			invoiceID = cs.ClientReferenceID
		}
		if invoiceID == "" {
			s.logger.Error().Str("session_id", cs.ID).Msg("Missing invoice_id in checkout session metadata")
			http.Error(w, "missing invoice_id in metadata", http.StatusBadRequest)
			return
		}

		if _, err := s.invoices.MarkPaid(r.Context(), invoiceID); err != nil {
			switch {
			case errors.Is(err, ErrInvoiceNotFound), errors.Is(err, billing.ErrInvalidTransition):
				// Retrying cannot fix these.
				s.logger.Warn().Err(err).Str("invoice_id", invoiceID).Msg("Ignoring payment for invoice")
			default:
				s.logger.Error().Err(err).Str("invoice_id", invoiceID).Msg("Failed to mark invoice paid")
				http.Error(w, "failed to mark invoice paid", http.StatusInternalServerError)
				return
			}
		} else {
			s.logger.Info().Str("invoice_id", invoiceID).Msg("Invoice paid by card")
		}
	default:
		s.logger.Debug().Str("event_type", string(event.Type)).Msg("Unhandled Stripe webhook event")
	}
	w.WriteHeader(http.StatusOK)
}
