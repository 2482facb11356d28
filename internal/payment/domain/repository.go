package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists the delivery trail for webhook events.
type Repository interface {
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)

	// InsertEvent stores the record, reporting false when a record for
	// the same provider event already exists.
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)

	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}
