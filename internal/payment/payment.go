// Package payment wraps the external payment provider. Only intent creation
// is used; intents are never persisted here.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var ErrNotConfigured = errors.New("payment provider not configured")

// Intent is the subset of a provider intent the service needs.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

type Provider interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error)
}

type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, nil)}
}

// newStripeProviderWithBackends points the client at custom backends.
func newStripeProviderWithBackends(secretKey string, backends *stripe.Backends) *StripeProvider {
	return &StripeProvider{api: client.New(secretKey, backends)}
}

func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, amount int64, currency string, methods []string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice(methods),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// Unconfigured rejects every request. Used when PAYMENT_SECRET_KEY is empty.
type Unconfigured struct{}

func (Unconfigured) CreatePaymentIntent(context.Context, int64, string, []string) (*Intent, error) {
	return nil, ErrNotConfigured
}
