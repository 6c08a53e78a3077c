package payment

import (
	"encoding/json"
	"testing"
	"time"

	appErrors "pronat/internal/errors"

	"github.com/stripe/stripe-go/v72"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionEvent(t *testing.T, eventType string, session map[string]any) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return stripe.Event{ID: "evt_1", Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func paidSession(status string) map[string]any {
	return map[string]any{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_status": status,
		"amount_total":   999,
		"currency":       "eur",
		"payment_intent": "pi_1",
		"metadata":       map[string]string{metaUserID: "7"},
	}
}

func TestFromStripeEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		status   string
		wantType string
	}{
		{"paid completion", stripeCheckoutCompleted, "paid", EventCheckoutCompleted},
		{"delayed method completes unpaid", stripeCheckoutCompleted, "unpaid", "checkout.unpaid"},
		{"delayed method settles", stripeAsyncPaymentSucceeded, "paid", EventCheckoutCompleted},
		{"unrelated event", "customer.created", "paid", "customer.created"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromStripeEvent(sessionEvent(t, tt.event, paidSession(tt.status)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got.Type)
			if tt.wantType != EventCheckoutCompleted {
				assert.Empty(t, got.PaymentReference)
				return
			}
			assert.Equal(t, "pi_1", got.PaymentReference)
			assert.Equal(t, int64(999), got.AmountTotal)
			assert.Equal(t, "EUR", got.Currency)
			assert.Equal(t, "7", got.Metadata[metaUserID])
		})
	}
}

func TestFromStripeEvent_SessionReferenceWithoutIntent(t *testing.T) {
	session := paidSession("paid")
	delete(session, "payment_intent")
	got, err := fromStripeEvent(sessionEvent(t, stripeCheckoutCompleted, session))
	require.NoError(t, err)
	assert.Equal(t, "cs_1", got.PaymentReference)
}

func TestFromStripeEvent_MalformedSession(t *testing.T) {
	_, err := fromStripeEvent(stripe.Event{Type: stripeCheckoutCompleted, Data: &stripe.EventData{Raw: []byte(`[`)}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidMetadata)

	_, err = fromStripeEvent(stripe.Event{Type: stripeAsyncPaymentSucceeded})
	assert.ErrorIs(t, err, appErrors.ErrInvalidMetadata)
}

func TestStripeProvider_RejectsUnsignedPayload(t *testing.T) {
	p := NewStripeProvider("sk_test_x", "whsec_test", time.Second)
	_, err := p.ParseWebhook([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, appErrors.ErrInvalidSignature)
}
