// Package payment implements the gateway side of the booking flow.
// Only intent creation is modelled: the amount goes in, a client-side
// confirmation token comes out, and reconciliation happens on the
// gateway dashboard via the metadata.  Webhook verification is
// intentionally not implemented.
package payment

import (
	"context"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/paymentintent"

	"github.com/cinepass/booking-api/internal/service"
)

// StripeProvider creates payment intents against Stripe.  It
// satisfies service.PaymentProvider.
type StripeProvider struct{}

// NewStripeProvider configures the global Stripe client with the
// secret key and returns a provider.
func NewStripeProvider(secretKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{}
}

// CreateIntent opens a payment intent for the given amount in minor
// units.  Metadata is attached verbatim so the booking id and
// reference are visible on the gateway side.
func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*service.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &service.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
