// Package domain defines the payment-event reconciliation contract.
package domain

import (
	"context"
	"errors"
	"net/http"
)

// Service reconciles provider webhook deliveries into the entitlement
// store. A nil return is an acknowledgement: the delivery was either
// applied or safely dropped, so the provider must not redeliver.
type Service interface {
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
)
