package models

import (
	"time"

	"github.com/google/uuid"
)

type ItemStatus string

const (
	ItemStatusDraft           ItemStatus = "draft"
	ItemStatusPending         ItemStatus = "pending"
	ItemStatusActive          ItemStatus = "active"
	ItemStatusEnded           ItemStatus = "ended"
	ItemStatusAwaitingPayment ItemStatus = "awaiting_payment"
	ItemStatusSold            ItemStatus = "sold"
)

// Item is a single auction lot. CurrentBid is monotonic: it always equals the
// amount of the most recent accepted bid (0 if none) and is only ever raised
// through the conditional update in the repository. WinnerID is set by a
// buy-now bid or by end-of-auction processing, never by a regular bid.
type Item struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Slug         string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	EventID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"event_id"`
	DonorID      uint       `gorm:"not null;index" json:"donor_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	StartingBid  float64    `gorm:"type:decimal(12,2);not null" json:"starting_bid"`
	MinIncrement float64    `gorm:"type:decimal(12,2);not null;default:1" json:"min_increment"`
	BuyNowPrice  *float64   `gorm:"type:decimal(12,2)" json:"buy_now_price"`
	MarketValue  *float64   `gorm:"type:decimal(12,2)" json:"market_value"`
	CurrentBid   float64    `gorm:"type:decimal(12,2);not null;default:0" json:"current_bid"`
	BidCount     int64      `gorm:"not null;default:0" json:"bid_count"`
	WinnerID     *uint      `gorm:"index" json:"winner_id"`
	AuctionEnd   *time.Time `gorm:"index" json:"auction_end"`
	Status       ItemStatus `gorm:"size:50;not null;default:draft;index:idx_items_status_auction_end" json:"status"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Item) TableName() string {
	return "items"
}

// CreateItemRequest represents an admin request to add a lot to an event.
type CreateItemRequest struct {
	EventID      uuid.UUID  `json:"event_id" binding:"required"`
	DonorID      uint       `json:"donor_id" binding:"required"`
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	StartingBid  float64    `json:"starting_bid" binding:"required,gt=0"`
	MinIncrement float64    `json:"min_increment" binding:"required,gt=0"`
	BuyNowPrice  *float64   `json:"buy_now_price"`
	MarketValue  *float64   `json:"market_value"`
	AuctionEnd   *time.Time `json:"auction_end"`
}

// EffectiveEnd resolves the item's end time: its own auction_end wins, the
// owning event's ends_at is the fallback.
func (i *Item) EffectiveEnd(eventEndsAt time.Time) time.Time {
	if i.AuctionEnd != nil {
		return *i.AuctionEnd
	}
	return eventEndsAt
}
