package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"foodorder/internal/model"
)

var hundred = decimal.NewFromInt(100)

// StripeGateway creates Stripe Checkout sessions.
type StripeGateway struct {
	api         *client.API
	currency    string
	frontendURL string
}

var _ Gateway = (*StripeGateway)(nil)

// NewStripeGateway creates a gateway using the given secret key.
// backends may be nil; tests pass stubbed backends.
func NewStripeGateway(secretKey, currency, frontendURL string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api, currency: currency, frontendURL: frontendURL}
}

// CreateSession opens a one-off payment session with one line item per order item.
func (g *StripeGateway) CreateSession(ctx context.Context, order *model.Order) (*Session, error) {
	if len(order.Items) == 0 {
		return nil, errors.New("stripe: order has no items")
	}
	success, cancel := ReturnURLs(g.frontendURL, order.ID)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(success),
		CancelURL:         stripe.String(cancel),
		ClientReferenceID: stripe.String(order.ID),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID)

	for _, item := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// SessionPaid checks the session's payment status.
func (g *StripeGateway) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return false, fmt.Errorf("stripe: get session: %w", err)
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired, nil
}

// MinorUnits converts a price to cents, rounding half away from zero.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}
