package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindOutbid NotificationKind = "outbid"
	NotificationKindWinner NotificationKind = "winner"
)

// Notification is an outbox row recorded when a bid or lifecycle transition
// displaces or crowns a bidder. Writing the row is best-effort and delivery
// (email etc.) is an external concern; a failed insert never fails the
// operation that triggered it.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Kind      NotificationKind `gorm:"size:50;not null;index" json:"kind"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	ItemID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"item_id"`
	Amount    float64          `gorm:"type:decimal(12,2);not null" json:"amount"`
	SentAt    *time.Time       `json:"sent_at"`
	CreatedAt time.Time        `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
