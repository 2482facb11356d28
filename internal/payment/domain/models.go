package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventTypeCheckoutCompleted is the only event type acted upon. Every
// other type is acknowledged and dropped.
const EventTypeCheckoutCompleted = "checkout.session.completed"

// PaymentEvent is the normalized view of one provider notification.
// PriceID and CustomerID may be empty when the payload omits them;
// the reconciler treats those deliveries as acknowledged no-ops.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	CustomerID      string
	PriceID         string
	ExternalUserID  string
	OccurredAt      time.Time
}

// EventRecord is the durable trail of an acted-on delivery. The
// provider/provider_event_id unique key makes duplicate delivery
// detection explicit.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:text;not null" json:"provider"`
	ProviderEventID string         `gorm:"type:text;not null" json:"provider_event_id"`
	EventType       string         `gorm:"type:text;not null" json:"event_type"`
	CustomerID      string         `gorm:"type:text;not null" json:"customer_id"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"-"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `gorm:"" json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }
