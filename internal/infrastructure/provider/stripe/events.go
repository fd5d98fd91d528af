package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/neverMEH/Personabl-Developed/internal/domain/entity"
	"github.com/neverMEH/Personabl-Developed/internal/domain/provider"
)

// VerifyEvent checks the Stripe-Signature header against the webhook secret.
func (s *StripeProvider) VerifyEvent(payload []byte, signature string) (*entity.ProviderEvent, error) {
	if signature == "" || s.webhookSecret == "" {
		return nil, provider.ErrInvalidSignature
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%w: %v", provider.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", provider.ErrMalformedEvent, err)
	}

	return toProviderEvent(event)
}

// ParseEvent decodes an event without verification.
func (s *StripeProvider) ParseEvent(payload []byte) (*entity.ProviderEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrMalformedEvent, err)
	}
	return toProviderEvent(event)
}

func toProviderEvent(event stripe.Event) (*entity.ProviderEvent, error) {
	if event.ID == "" || event.Type == "" || event.Data == nil {
		return nil, fmt.Errorf("%w: missing id, type or data", provider.ErrMalformedEvent)
	}

	out := &entity.ProviderEvent{
		ID:         event.ID,
		Type:       string(event.Type),
		APIVersion: event.APIVersion,
		CreatedAt:  time.Unix(event.Created, 0).UTC(),
		Livemode:   event.Livemode,
		Data:       event.Data.Object,
	}

	switch out.Type {
	case entity.EventCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", provider.ErrMalformedEvent, err)
		}
		out.CheckoutSession = toCheckoutSession(&session)

	case entity.EventSubscriptionCreated, entity.EventSubscriptionUpdated, entity.EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", provider.ErrMalformedEvent, err)
		}
		if sub.ID == "" {
			return nil, fmt.Errorf("%w: subscription without id", provider.ErrMalformedEvent)
		}
		out.Subscription = toProviderSubscription(&sub)

	case entity.EventInvoicePaymentSucceeded, entity.EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", provider.ErrMalformedEvent, err)
		}
		out.Invoice = toInvoice(&invoice)
	}

	return out, nil
}

func toProviderSubscription(sub *stripe.Subscription) *entity.ProviderSubscription {
	out := &entity.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		TrialStart:         unixTime(sub.TrialStart),
		TrialEnd:           unixTime(sub.TrialEnd),
		CanceledAt:         unixTime(sub.CanceledAt),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		Metadata:           sub.Metadata,
	}

	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
		out.CustomerEmail = sub.Customer.Email
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		out.PriceID = price.ID
		if price.Product != nil {
			out.ProductID = price.Product.ID
		}
	}

	if sub.Discount != nil && sub.Discount.Coupon != nil {
		out.CouponID = sub.Discount.Coupon.ID
	}

	return out
}

func toCheckoutSession(session *stripe.CheckoutSession) *entity.CheckoutSession {
	out := &entity.CheckoutSession{
		ID:                session.ID,
		Mode:              string(session.Mode),
		CustomerEmail:     session.CustomerEmail,
		ClientReferenceID: session.ClientReferenceID,
		PaymentStatus:     string(session.PaymentStatus),
		Metadata:          session.Metadata,
	}
	if session.Customer != nil {
		out.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		out.SubscriptionID = session.Subscription.ID
	}
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		out.CustomerEmail = session.CustomerDetails.Email
	}
	return out
}

func toInvoice(invoice *stripe.Invoice) *entity.Invoice {
	out := &entity.Invoice{
		ID:            invoice.ID,
		CustomerEmail: invoice.CustomerEmail,
	}
	if invoice.Customer != nil {
		out.CustomerID = invoice.Customer.ID
	}
	if invoice.Subscription != nil {
		out.SubscriptionID = invoice.Subscription.ID
	}
	return out
}

// unixTime converts provider Unix seconds to UTC. Zero means null.
func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
