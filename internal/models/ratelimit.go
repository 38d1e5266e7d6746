package models

import (
	"time"

	"github.com/google/uuid"
)

// RateLimitRecord is the persisted sliding-window counter for one
// (identifier, action) pair. Created lazily on first attempt, reset when the
// window elapses, and replaced by a block once attempts exceed the action's
// threshold.
type RateLimitRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Identifier   string     `gorm:"size:255;not null;uniqueIndex:idx_rate_limits_identifier_action" json:"identifier"`
	Action       string     `gorm:"size:100;not null;uniqueIndex:idx_rate_limits_identifier_action" json:"action"`
	Attempts     int64      `gorm:"not null;default:1" json:"attempts"`
	WindowStart  time.Time  `gorm:"not null" json:"window_start"`
	BlockedUntil *time.Time `json:"blocked_until"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RateLimitRecord) TableName() string {
	return "rate_limit_records"
}
