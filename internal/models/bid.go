package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an immutable append-only record of an accepted bid. Bids are never
// updated or deleted by the engine; the current leader for an item is the bid
// whose amount equals Item.CurrentBid.
type Bid struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_bids_item_amount" json:"item_id"`
	BidderID  uint      `gorm:"not null;index" json:"bidder_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null;index:idx_bids_item_amount" json:"amount"`
	IsBuyNow  bool      `gorm:"not null;default:false" json:"is_buy_now"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Bid) TableName() string {
	return "bids"
}

// PlaceBidRequest represents a bid placement request.
type PlaceBidRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	IsBuyNow bool    `json:"is_buy_now"`
}

// BidResult is returned to the caller after a bid is accepted. The Gift Aid
// estimate is advisory only.
type BidResult struct {
	BidID           uuid.UUID `json:"bid_id"`
	ItemID          uuid.UUID `json:"item_id"`
	BidderID        uint      `json:"bidder_id"`
	Amount          float64   `json:"amount"`
	IsBuyNow        bool      `json:"is_buy_now"`
	GiftAidEstimate float64   `json:"gift_aid_estimate"`
}
