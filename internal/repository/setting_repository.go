package repository

import (
	"context"

	"charity-auction/internal/models"

	"gorm.io/gorm/clause"
)

// GetAuctionControl reads the operator flags in one query. Missing keys
// default to false so a fresh database behaves as an unpaused auction.
func (r *Repository) GetAuctionControl(ctx context.Context) (models.AuctionControl, error) {
	var settings []models.Setting
	err := r.db.WithContext(ctx).
		Where("key IN ?", []string{models.SettingBiddingPaused, models.SettingAutoPaymentRequests}).
		Find(&settings).Error
	if err != nil {
		return models.AuctionControl{}, err
	}

	var control models.AuctionControl
	for _, s := range settings {
		switch s.Key {
		case models.SettingBiddingPaused:
			control.BiddingPaused = s.Value == "true"
		case models.SettingAutoPaymentRequests:
			control.AutoPaymentRequests = s.Value == "true"
		}
	}
	return control, nil
}

// SetSetting upserts a key/value setting
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}
