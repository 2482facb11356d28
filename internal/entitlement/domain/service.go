package domain

import (
	"context"
	"errors"

	"github.com/zalingo/billing/internal/plan"
)

// Service is the entitlement store front: plan application, strict
// lookup, and the usage gate.
type Service interface {
	// ApplyPlan upserts the customer's plan and limit. Usage already
	// consumed is preserved; only a brand-new record starts at zero.
	ApplyPlan(ctx context.Context, customerID string, p plan.Plan) (*Entitlement, error)

	// Get returns the stored record without auto-provisioning.
	Get(ctx context.Context, customerID string) (*Entitlement, error)

	// Consume atomically admits one message against the customer's
	// limit, provisioning the default free tier for unknown customers.
	Consume(ctx context.Context, customerID string) (ConsumeResult, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrNotFound        = errors.New("entitlement_not_found")
)
