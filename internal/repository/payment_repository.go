package repository

import (
	"context"
	"errors"
	"time"

	"charity-auction/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreatePayment creates the payment row for a won item. The unique index on
// item_id makes a duplicate insert fail, backing up the status-guarded claim.
func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetPaymentByID retrieves a payment by ID
func (r *Repository) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", paymentID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPaymentByItem retrieves the payment for an item. Returns nil without
// error when no payment exists.
func (r *Repository) GetPaymentByItem(ctx context.Context, itemID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).First(&payment).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// AdvancePaymentStatus moves a payment from one status to another only if it
// is still in the expected source status.
func (r *Repository) AdvancePaymentStatus(
	ctx context.Context,
	paymentID uuid.UUID,
	from, to models.PaymentStatus,
) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}

	now := time.Now()
	switch to {
	case models.PaymentStatusRequestSent:
		updates["requested_at"] = &now
	case models.PaymentStatusCompleted:
		updates["completed_at"] = &now
	}

	result := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
