package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	appErrors "pronat/internal/errors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"
)

// Card payments settle at completion. Delayed methods report completion unpaid
// and settle with the async success event.
const (
	stripeCheckoutCompleted     = "checkout.session.completed"
	stripeAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// StripeProvider creates Checkout sessions and verifies Stripe webhooks.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string, timeout time.Duration) *StripeProvider {
	httpClient := &http.Client{Timeout: timeout}
	return &StripeProvider{
		api:           client.New(secretKey, stripe.NewBackends(httpClient)),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, item LineItem, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		ClientReferenceID:  stripe.String(metadata[metaUserID]),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(item.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
					UnitAmount: stripe.Int64(MinorUnits(item.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, appErrors.ErrPaymentProvider.Wrap(err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, appErrors.ErrInvalidSignature.Wrap(err)
	}
	return fromStripeEvent(event)
}

func fromStripeEvent(event stripe.Event) (*WebhookEvent, error) {
	out := &WebhookEvent{ID: event.ID, Type: event.Type}
	if event.Type != stripeCheckoutCompleted && event.Type != stripeAsyncPaymentSucceeded {
		return out, nil
	}
	if event.Data == nil {
		return nil, appErrors.ErrInvalidMetadata.WithMessage("event carries no session")
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, appErrors.ErrInvalidMetadata.Wrap(err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		out.Type = "checkout.unpaid"
		return out, nil
	}

	out.Type = EventCheckoutCompleted
	out.Metadata = sess.Metadata
	out.AmountTotal = sess.AmountTotal
	out.Currency = strings.ToUpper(string(sess.Currency))
	out.PaymentReference = sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		out.PaymentReference = sess.PaymentIntent.ID
	}
	return out, nil
}
