package models

import "time"

// Setting is a key/value row backing operator-togglable flags.
type Setting struct {
	Key       string    `gorm:"size:100;primaryKey" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

const (
	SettingBiddingPaused       = "bidding_paused"
	SettingAutoPaymentRequests = "auto_payment_requests"
)

// AuctionControl is the operator state fetched once per engine call, so the
// engine never reads ambient globals mid-operation.
type AuctionControl struct {
	BiddingPaused       bool `json:"bidding_paused"`
	AutoPaymentRequests bool `json:"auto_payment_requests"`
}

// UpdateSettingsRequest toggles operator flags.
type UpdateSettingsRequest struct {
	BiddingPaused       *bool `json:"bidding_paused"`
	AutoPaymentRequests *bool `json:"auto_payment_requests"`
}
