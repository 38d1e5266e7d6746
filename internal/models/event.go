package models

import (
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusActive    EventStatus = "active"
	EventStatusEnded     EventStatus = "ended"
	EventStatusClosed    EventStatus = "closed"
)

// Event is a grouping auction session with its own lifecycle. Items belong to
// exactly one event and inherit its ends_at when they carry no auction_end of
// their own.
type Event struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Slug        string      `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	StartsAt    time.Time   `json:"starts_at"`
	EndsAt      time.Time   `gorm:"index" json:"ends_at"`
	Status      EventStatus `gorm:"size:50;not null;default:draft;index" json:"status"`
	CreatedAt   time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// NextEventStatus returns the only legal transition target from a given event
// status. Event transitions are admin-driven one-way steps along
// draft -> published -> active -> ended -> closed.
func NextEventStatus(status EventStatus) (EventStatus, bool) {
	switch status {
	case EventStatusDraft:
		return EventStatusPublished, true
	case EventStatusPublished:
		return EventStatusActive, true
	case EventStatusActive:
		return EventStatusEnded, true
	case EventStatusEnded:
		return EventStatusClosed, true
	default:
		return "", false
	}
}

// TransitionEventRequest represents an admin request to advance an event.
type TransitionEventRequest struct {
	Target EventStatus `json:"target" binding:"required"`
}

// CreateEventRequest represents an admin request to create a draft event.
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	EndsAt      time.Time `json:"ends_at" binding:"required"`
}
