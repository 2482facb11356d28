// Package repository implements entitlement persistence over gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/zalingo/billing/internal/entitlement/domain"
	"github.com/zalingo/billing/internal/plan"
)

type repository struct{}

// Provide returns the gorm-backed entitlement repository.
func Provide() domain.Repository {
	return repository{}
}

func (repository) Find(ctx context.Context, db *gorm.DB, customerID string) (*domain.Entitlement, error) {
	var record domain.Entitlement
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (repository) Upsert(ctx context.Context, db *gorm.DB, record *domain.Entitlement) error {
	// messages_used is deliberately absent from the conflict update:
	// a plan change must not reset consumed usage.
	return db.WithContext(ctx).Exec(
		`INSERT INTO entitlements (customer_id, plan, message_limit, messages_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (customer_id) DO UPDATE
		 SET plan = excluded.plan,
		     message_limit = excluded.message_limit,
		     updated_at = excluded.updated_at`,
		record.CustomerID,
		record.Plan,
		record.MessageLimit,
		record.MessagesUsed,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (repository) EnsureDefault(ctx context.Context, db *gorm.DB, customerID string, p plan.Plan, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO entitlements (customer_id, plan, message_limit, messages_used, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT (customer_id) DO NOTHING`,
		customerID,
		p.Name,
		p.MessageLimit,
		now,
		now,
	).Error
}

func (repository) ConsumeOne(ctx context.Context, db *gorm.DB, customerID string, now time.Time) (bool, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE entitlements
		 SET messages_used = messages_used + 1, updated_at = ?
		 WHERE customer_id = ?
		   AND (message_limit = ? OR messages_used < message_limit)`,
		now,
		customerID,
		plan.UnlimitedLimit,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
