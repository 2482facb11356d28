package domain

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/plan"
)

// Repository persists entitlement records. Every mutation is a single
// atomic statement so concurrent writers cannot lose updates.
type Repository interface {
	// Find returns the record for customerID, or nil when absent.
	Find(ctx context.Context, db *gorm.DB, customerID string) (*Entitlement, error)

	// Upsert inserts the record or, on conflict, overwrites plan and
	// limit while leaving messages_used untouched.
	Upsert(ctx context.Context, db *gorm.DB, record *Entitlement) error

	// EnsureDefault inserts a zero-usage record for the plan if none
	// exists yet. Existing records are untouched.
	EnsureDefault(ctx context.Context, db *gorm.DB, customerID string, p plan.Plan, now time.Time) error

	// ConsumeOne increments messages_used by one if the limit permits,
	// reporting whether the increment was applied.
	ConsumeOne(ctx context.Context, db *gorm.DB, customerID string, now time.Time) (bool, error)
}
