package repository

import (
	"context"

	"charity-auction/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateEvent creates a new event
func (r *Repository) CreateEvent(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// GetEventByID retrieves an event by ID
func (r *Repository) GetEventByID(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventBySlug retrieves an event by slug
func (r *Repository) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents retrieves events, newest first, optionally filtered by status
func (r *Repository) ListEvents(ctx context.Context, status *models.EventStatus, limit, offset int) ([]*models.Event, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var events []*models.Event
	err := query.Order("starts_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// AdvanceEventStatus moves an event from one status to another only if it is
// still in the expected source status, and reports whether the update landed.
// Two admins racing the same transition resolve here: one wins, the other
// sees no row affected.
func (r *Repository) AdvanceEventStatus(
	ctx context.Context,
	eventID uuid.UUID,
	from, to models.EventStatus,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND status = ?", eventID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
