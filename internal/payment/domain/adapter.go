package domain

import (
	"context"
	"net/http"
)

// PaymentAdapter hides one provider's event signing and payload shape.
// Verify authenticates a raw delivery against the pre-shared secret;
// Parse normalizes it into a PaymentEvent.
type PaymentAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*PaymentEvent, error)
}
