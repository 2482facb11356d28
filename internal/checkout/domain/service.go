// Package domain defines the checkout-session contract.
package domain

import (
	"context"
	"errors"
)

// CreateSessionRequest asks the payment provider for a hosted checkout
// flow. ExternalUserID, when present, travels as opaque session
// metadata so the webhook can recover it without a database lookup.
type CreateSessionRequest struct {
	PriceID        string
	CustomerEmail  string
	ExternalUserID string
}

// Session is the provider-hosted purchase flow handle.
type Session struct {
	ID          string
	RedirectURL string
}

type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
}

var (
	ErrInvalidPrice  = errors.New("invalid_price")
	ErrRemoteSession = errors.New("remote_session_failed")
)
