package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
)

const testWebhookSecret = "whsec_test_secret"

func newTestProvider(apiURL string) *StripeProvider {
	return NewStripeProvider(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		APIURL:        apiURL,
		Timeout:       2 * time.Second,
	}, zap.NewNop())
}

func signedHeader(payload []byte, secret string, at time.Time) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	}).Header
}

const subscriptionUpdatedPayload = `{
  "id": "evt_123",
  "object": "event",
  "type": "customer.subscription.updated",
  "api_version": "2024-06-20",
  "created": 1709294400,
  "livemode": false,
  "data": {
    "object": {
      "id": "sub_123",
      "object": "subscription",
      "customer": "cus_123",
      "status": "active",
      "cancel_at_period_end": true,
      "current_period_start": 1709294400,
      "current_period_end": 1711972800,
      "trial_start": null,
      "trial_end": 0,
      "discount": {"id": "di_1", "object": "discount", "coupon": {"id": "co_launch", "object": "coupon"}},
      "items": {
        "object": "list",
        "data": [
          {"id": "si_1", "object": "subscription_item", "price": {"id": "price_1", "object": "price", "product": "prod_1"}}
        ]
      }
    }
  }
}`

func TestVerifyEvent_SubscriptionUpdated(t *testing.T) {
	p := newTestProvider("")
	payload := []byte(subscriptionUpdatedPayload)

	event, err := p.VerifyEvent(payload, signedHeader(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, entity.EventSubscriptionUpdated, event.Type)
	assert.Equal(t, time.Unix(1709294400, 0).UTC(), event.CreatedAt)
	assert.Equal(t, "2024-06-20", event.APIVersion)

	sub := event.Subscription
	require.NotNil(t, sub)
	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, "cus_123", sub.CustomerID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, "prod_1", sub.ProductID)
	assert.Equal(t, "price_1", sub.PriceID)
	assert.Equal(t, "co_launch", sub.CouponID)
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC), *sub.CurrentPeriodEnd)
	assert.Nil(t, sub.TrialStart)
	assert.Nil(t, sub.TrialEnd)
}

func TestVerifyEvent_CheckoutAndInvoice(t *testing.T) {
	p := newTestProvider("")

	checkout := []byte(`{"id":"evt_cs","object":"event","type":"checkout.session.completed","created":1709294400,
		"data":{"object":{"id":"cs_1","object":"checkout.session","mode":"subscription","customer":"cus_1",
		"subscription":"sub_1","payment_status":"paid","customer_details":{"email":"ada@example.com"}}}}`)
	event, err := p.VerifyEvent(checkout, signedHeader(checkout, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, event.CheckoutSession)
	assert.Equal(t, "sub_1", event.CheckoutSession.SubscriptionID)
	assert.Equal(t, "cus_1", event.CheckoutSession.CustomerID)
	assert.Equal(t, "ada@example.com", event.CheckoutSession.CustomerEmail)
	assert.Equal(t, "paid", event.CheckoutSession.PaymentStatus)

	invoice := []byte(`{"id":"evt_in","object":"event","type":"invoice.payment_failed","created":1709294400,
		"data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1","subscription":"sub_1"}}}`)
	event, err = p.VerifyEvent(invoice, signedHeader(invoice, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, event.Invoice)
	assert.Equal(t, "sub_1", event.Invoice.SubscriptionID)
}

func TestVerifyEvent_RejectsBadSignatures(t *testing.T) {
	p := newTestProvider("")
	payload := []byte(subscriptionUpdatedPayload)

	tests := []struct {
		name      string
		signature string
	}{
		{name: "missing", signature: ""},
		{name: "wrong secret", signature: signedHeader(payload, "whsec_other", time.Now())},
		{name: "too old", signature: signedHeader(payload, testWebhookSecret, time.Now().Add(-time.Hour))},
		{name: "garbage header", signature: "not-a-signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.VerifyEvent(payload, tt.signature)
			require.Error(t, err)
			assert.True(t, errors.Is(err, provider.ErrInvalidSignature), "got %v", err)
		})
	}
}

func TestVerifyEvent_MalformedPayload(t *testing.T) {
	p := newTestProvider("")
	payload := []byte(`{"id":"evt_1","object":"event","type":"customer.subscription.updated","created":1,"data":{"object":{"object":"subscription"}}}`)

	_, err := p.VerifyEvent(payload, signedHeader(payload, testWebhookSecret, time.Now()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrMalformedEvent), "got %v", err)
}

func TestParseEvent(t *testing.T) {
	p := newTestProvider("")

	event, err := p.ParseEvent([]byte(subscriptionUpdatedPayload))
	require.NoError(t, err)
	assert.Equal(t, "sub_123", event.Subscription.ID)

	_, err = p.ParseEvent([]byte(`not json`))
	assert.True(t, errors.Is(err, provider.ErrMalformedEvent))
}

func TestGetSubscription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/subscriptions/sub_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.RawQuery, "customer")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"sub_123","object":"subscription","status":"trialing",
			"customer":{"id":"cus_123","object":"customer","email":"ada@example.com"},
			"current_period_start":1709294400,"current_period_end":1711972800,
			"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","price":{"id":"price_1","object":"price","product":"prod_1"}}]}}`)
	}))
	defer server.Close()

	sub, err := newTestProvider(server.URL).GetSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, "cus_123", sub.CustomerID)
	assert.Equal(t, "ada@example.com", sub.CustomerEmail)
	assert.Equal(t, "price_1", sub.PriceID)
}

func TestCreateCustomer_ErrorIsNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"type":"api_error","message":"unavailable"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).CreateCustomer(context.Background(), &entity.CreateCustomerRequest{
		UserID: "550e8400-e29b-41d4-a716-446655440000",
		Email:  "ada@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
