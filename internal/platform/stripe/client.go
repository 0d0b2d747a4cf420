package stripe

import (
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/fx"

	cfgpkg "github.com/subdash/subdash/pkg/config"
)

// Client wraps the Stripe SDK behind the handful of operations this service
// needs. All Stripe calls in the codebase go through here.
type Client struct {
	cfg cfgpkg.StripeConfig
}

func NewClient(cfg *cfgpkg.Config) *Client {
	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
	}
	return &Client{cfg: cfg.Stripe}
}

// Enabled reports whether the processor API key is configured. Outbound
// Stripe calls fail fast when it is not.
func (c *Client) Enabled() bool { return c.cfg.SecretKey != "" }

// SigningConfigured reports whether webhook signature verification is on.
func (c *Client) SigningConfigured() bool { return c.cfg.WebhookSecret != "" }

// ConstructWebhookEvent verifies the Stripe-Signature header against the raw
// request body and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}

// CreatePaymentIntent creates a one-time payment intent and returns its
// client secret.
func (c *Client) CreatePaymentIntent(amountCents int64, currency string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

// CreateCustomer creates a Stripe customer and returns the customer ID.
func (c *Client) CreateCustomer(email, name string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateSubscription creates an incomplete subscription on the given price
// and returns the subscription ID plus the client secret the frontend needs
// to confirm the first payment.
func (c *Client) CreateSubscription(customerID, priceID string) (subscriptionID, clientSecret string, err error) {
	if !c.Enabled() {
		return "", "", ErrNotConfigured
	}
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	params.AddExpand("latest_invoice.confirmation_secret")
	sub, err := subscription.New(params)
	if err != nil {
		return "", "", fmt.Errorf("create subscription: %w", err)
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil {
		clientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}
	return sub.ID, clientSecret, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
