package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusRequestSent PaymentStatus = "request_sent"
	PaymentStatusCompleted   PaymentStatus = "completed"
	PaymentStatusFailed      PaymentStatus = "failed"
	PaymentStatusRefunded    PaymentStatus = "refunded"
)

// Payment is created exactly once per item at the moment a winner is
// determined. The unique index on item_id enforces the one-payment-per-item
// invariant at the datastore level.
type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ItemID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"item_id"`
	WinnerID    uint          `gorm:"not null;index" json:"winner_id"`
	Amount      float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      PaymentStatus `gorm:"size:50;not null;default:pending;index" json:"status"`
	RequestedAt *time.Time    `json:"requested_at"`
	CompletedAt *time.Time    `json:"completed_at"`
	CreatedAt   time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
