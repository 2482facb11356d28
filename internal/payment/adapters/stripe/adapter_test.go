package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/zalingo/billing/internal/payment/domain"
)

const testSecret = "whsec_test_secret"

func signedHeaders(t *testing.T, payload []byte, secret string) http.Header {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	headers := http.Header{}
	headers.Set("Stripe-Signature", signed.Header)
	return headers
}

func completedEventJSON(session string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"type": "checkout.session.completed",
		"created": 1767225600,
		"data": {"object": %s}
	}`, session))
}

func TestVerifyAcceptsSignedPayload(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{"customer": "cus_1"}`)

	if err := adapter.Verify(context.Background(), payload, signedHeaders(t, payload, testSecret)); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{"customer": "cus_1"}`)

	err := adapter.Verify(context.Background(), payload, signedHeaders(t, payload, "whsec_other"))
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{"customer": "cus_1"}`)
	headers := signedHeaders(t, payload, testSecret)

	tampered := completedEventJSON(`{"customer": "cus_2"}`)
	err := adapter.Verify(context.Background(), tampered, headers)
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	adapter := NewAdapter(testSecret)

	err := adapter.Verify(context.Background(), []byte(`{}`), http.Header{})
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestParseIgnoresOtherEventTypes(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := []byte(`{"id": "evt_1", "type": "invoice.paid", "data": {"object": {}}}`)

	_, err := adapter.Parse(context.Background(), payload)
	if !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("expected event ignored, got %v", err)
	}
}

func TestParseRejectsEventWithoutID(t *testing.T) {
	adapter := NewAdapter(testSecret)

	_, err := adapter.Parse(context.Background(), []byte(`{"type": "checkout.session.completed"}`))
	if !errors.Is(err, domain.ErrInvalidEvent) {
		t.Fatalf("expected invalid event, got %v", err)
	}
}

func TestParsePrefersDisplayItems(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{
		"customer": "cus_1",
		"display_items": [{"price": {"id": "price_display"}}],
		"items": {"data": [{"price": {"id": "price_items"}}]},
		"metadata": {"priceId": "price_meta"}
	}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.PriceID != "price_display" {
		t.Fatalf("expected display_items price, got %q", event.PriceID)
	}
}

func TestParseFallsBackToLineItems(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{
		"customer": "cus_1",
		"items": {"data": [{"price": {"id": "price_items"}}]},
		"metadata": {"priceId": "price_meta"}
	}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.PriceID != "price_items" {
		t.Fatalf("expected line item price, got %q", event.PriceID)
	}
}

func TestParseFallsBackToMetadataPrice(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{
		"customer": "cus_1",
		"metadata": {"priceId": "price_meta"}
	}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.PriceID != "price_meta" {
		t.Fatalf("expected metadata price, got %q", event.PriceID)
	}
}

func TestParseCustomerFallsBackToMetadataUser(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{
		"metadata": {"priceId": "price_meta", "userId": "user_42"}
	}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.CustomerID != "user_42" {
		t.Fatalf("expected metadata user id, got %q", event.CustomerID)
	}
	if event.ExternalUserID != "user_42" {
		t.Fatalf("expected external user id, got %q", event.ExternalUserID)
	}
}

func TestParseExpandedCustomerObject(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{
		"customer": {"id": "cus_expanded", "email": "a@b.test"},
		"metadata": {"priceId": "price_meta"}
	}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.CustomerID != "cus_expanded" {
		t.Fatalf("expected expanded customer id, got %q", event.CustomerID)
	}
}

func TestParseNormalizesEventEnvelope(t *testing.T) {
	adapter := NewAdapter(testSecret)
	payload := completedEventJSON(`{"customer": "cus_1", "metadata": {"priceId": "price_meta"}}`)

	event, err := adapter.Parse(context.Background(), payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Provider != ProviderName {
		t.Fatalf("expected provider %q, got %q", ProviderName, event.Provider)
	}
	if event.ProviderEventID != "evt_test_1" {
		t.Fatalf("unexpected event id %q", event.ProviderEventID)
	}
	if event.OccurredAt != time.Unix(1767225600, 0).UTC() {
		t.Fatalf("unexpected occurred_at %v", event.OccurredAt)
	}
}
