// Package domain contains the per-customer entitlement record.
package domain

import "time"

// Entitlement is the durable plan/usage tuple for one customer. The
// external customer identifier is the sole identity.
type Entitlement struct {
	CustomerID   string    `gorm:"primaryKey;column:customer_id" json:"customer_id"`
	Plan         string    `gorm:"type:text;not null" json:"plan"`
	MessageLimit int64     `gorm:"not null" json:"message_limit"`
	MessagesUsed int64     `gorm:"not null;default:0" json:"messages_used"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Entitlement) TableName() string { return "entitlements" }

// ConsumeResult reports one usage-gate decision.
type ConsumeResult struct {
	Allowed bool `json:"allowed"`
	// Remaining is the post-decision allowance. -1 means unlimited; it
	// is 0 when the call was denied.
	Remaining int64 `json:"remaining"`
}
