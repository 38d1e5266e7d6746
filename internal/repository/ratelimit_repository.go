package repository

import (
	"context"
	"errors"
	"time"

	"charity-auction/internal/models"

	"gorm.io/gorm"
)

// GetRateLimitRecord retrieves the record for an (identifier, action) pair.
// Returns nil without error when no record exists.
func (r *Repository) GetRateLimitRecord(ctx context.Context, identifier, action string) (*models.RateLimitRecord, error) {
	var record models.RateLimitRecord
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND action = ?", identifier, action).
		First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateRateLimitRecord creates the lazily-initialized record on first attempt
func (r *Repository) CreateRateLimitRecord(ctx context.Context, record *models.RateLimitRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ResetRateLimitWindow restarts the window for a record whose window elapsed
func (r *Repository) ResetRateLimitWindow(ctx context.Context, identifier, action string, windowStart time.Time) error {
	return r.db.WithContext(ctx).Model(&models.RateLimitRecord{}).
		Where("identifier = ? AND action = ?", identifier, action).
		Updates(map[string]interface{}{
			"attempts":      1,
			"window_start":  windowStart,
			"blocked_until": nil,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// IncrementRateLimitAttempts bumps the counter in a single guarded UPDATE so
// racing requests lose at most one attempt of accuracy.
func (r *Repository) IncrementRateLimitAttempts(ctx context.Context, identifier, action string) error {
	return r.db.WithContext(ctx).Model(&models.RateLimitRecord{}).
		Where("identifier = ? AND action = ?", identifier, action).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// BlockRateLimit sets the block marker on a record that exceeded its threshold
func (r *Repository) BlockRateLimit(ctx context.Context, identifier, action string, blockedUntil time.Time) error {
	return r.db.WithContext(ctx).Model(&models.RateLimitRecord{}).
		Where("identifier = ? AND action = ?", identifier, action).
		Updates(map[string]interface{}{
			"blocked_until": &blockedUntil,
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// DeleteRateLimitRecord removes the record outright (used on successful login)
func (r *Repository) DeleteRateLimitRecord(ctx context.Context, identifier, action string) error {
	return r.db.WithContext(ctx).
		Where("identifier = ? AND action = ?", identifier, action).
		Delete(&models.RateLimitRecord{}).Error
}
