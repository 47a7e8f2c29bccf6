package order

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// CheckoutRequest describes a single-ticket hosted checkout.
type CheckoutRequest struct {
	EventID    string
	EventTitle string
	BuyerID    string // external identity id, echoed back in webhook metadata
	UnitAmount int64  // minor units
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSessionCreator interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// StripeCheckout creates Stripe Checkout Sessions with the global stripe.Key.
type StripeCheckout struct{}

// InitStripe sets the API key used by every Stripe call in the process.
func InitStripe(secretKey string) {
	stripe.Key = secretKey
}

func (StripeCheckout) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if stripe.Key == "" {
		return "", errors.New("stripe secret key is not configured")
	}
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.EventTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"eventId": req.EventID,
			"buyerId": req.BuyerID,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}
