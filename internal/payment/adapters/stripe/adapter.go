// Package stripe adapts Stripe webhook deliveries to payment events.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/zalingo/billing/internal/payment/domain"
)

const (
	ProviderName    = "stripe"
	signatureHeader = "Stripe-Signature"
)

type Adapter struct {
	secret string
}

func NewAdapter(webhookSecret string) *Adapter {
	return &Adapter{secret: webhookSecret}
}

// Verify checks the delivery signature against the pre-shared webhook
// secret. Malformed payloads and stale timestamps fail here too; the
// provider treats the resulting 4xx as non-transient.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	signature := headers.Get(signatureHeader)
	if strings.TrimSpace(signature) == "" {
		return fmt.Errorf("%w: missing %s header", domain.ErrInvalidSignature, signatureHeader)
	}
	if _, err := webhook.ConstructEvent(payload, signature, a.secret); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	return nil
}

// Parse normalizes a verified payload. Only checkout completion events
// survive; everything else returns ErrEventIgnored.
func (a *Adapter) Parse(ctx context.Context, payload []byte) (*domain.PaymentEvent, error) {
	var event stripeapi.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if event.ID == "" || event.Type == "" {
		return nil, domain.ErrInvalidEvent
	}

	out := &domain.PaymentEvent{
		Provider:        ProviderName,
		ProviderEventID: event.ID,
		Type:            string(event.Type),
		OccurredAt:      time.Unix(event.Created, 0).UTC(),
	}
	if out.Type != domain.EventTypeCheckoutCompleted {
		return nil, domain.ErrEventIgnored
	}

	var session checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	out.PriceID = session.priceID()
	out.CustomerID = session.customerID()
	out.ExternalUserID = strings.TrimSpace(session.Metadata["userId"])
	return out, nil
}

// checkoutSessionPayload mirrors the fields this service reads from a
// checkout.session.completed payload.
type checkoutSessionPayload struct {
	Customer     customerRef       `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
	DisplayItems []lineItem        `json:"display_items"`
	Items        struct {
		Data []lineItem `json:"data"`
	} `json:"items"`
}

type lineItem struct {
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
}

// priceID resolves the purchased price, preferring line items and
// falling back to the metadata mirror set at session creation.
func (s checkoutSessionPayload) priceID() string {
	if len(s.DisplayItems) > 0 {
		if id := strings.TrimSpace(s.DisplayItems[0].Price.ID); id != "" {
			return id
		}
	}
	if len(s.Items.Data) > 0 {
		if id := strings.TrimSpace(s.Items.Data[0].Price.ID); id != "" {
			return id
		}
	}
	return strings.TrimSpace(s.Metadata["priceId"])
}

// customerID prefers the provider's customer reference and falls back
// to the external user id carried as metadata.
func (s checkoutSessionPayload) customerID() string {
	if id := strings.TrimSpace(s.Customer.ID); id != "" {
		return id
	}
	return strings.TrimSpace(s.Metadata["userId"])
}

// customerRef accepts either a bare id string or an expanded object.
type customerRef struct {
	ID string
}

func (c *customerRef) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &c.ID)
	}
	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &expanded); err != nil {
		return err
	}
	c.ID = expanded.ID
	return nil
}
