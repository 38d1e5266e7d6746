package repository

import (
	"context"
	"errors"
	"time"

	"charity-auction/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCurrentBidChanged is returned when the conditional bid-accept update
// matched no row: another bid raised current_bid between the validation read
// and the write, and the whole transaction was rolled back.
var ErrCurrentBidChanged = errors.New("item current bid changed since validation")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetItemByID retrieves an item by ID
func (r *Repository) GetItemByID(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemBySlug retrieves an item by slug
func (r *Repository) GetItemBySlug(ctx context.Context, slug string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem creates a new item
func (r *Repository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// GetEventItems retrieves all items belonging to an event
func (r *Repository) GetEventItems(ctx context.Context, eventID uuid.UUID) ([]*models.Item, error) {
	var items []*models.Item
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AcceptBid inserts the bid row and raises the item's aggregates in a single
// transaction. The item update is conditional on the current_bid observed at
// validation time; if another bid landed in between, zero rows match, the
// transaction rolls back and ErrCurrentBidChanged is returned. extraUpdates
// lets a buy-now bid set winner_id and status in the same atomic step.
func (r *Repository) AcceptBid(
	ctx context.Context,
	bid *models.Bid,
	priorCurrentBid float64,
	extraUpdates map[string]interface{},
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bid).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"current_bid": bid.Amount,
			"bid_count":   gorm.Expr("bid_count + 1"),
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		}
		for k, v := range extraUpdates {
			updates[k] = v
		}

		result := tx.Model(&models.Item{}).
			Where("id = ? AND status = ? AND current_bid = ?",
				bid.ItemID, models.ItemStatusActive, priorCurrentBid).
			Updates(updates)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCurrentBidChanged
		}
		return nil
	})
}

// GetLeadingBid retrieves the bid whose amount equals the item's current bid.
// Ties cannot occur because each accepted bid strictly increases current_bid.
// Returns nil without error when the item has no bids.
func (r *Repository) GetLeadingBid(ctx context.Context, itemID uuid.UUID, amount float64) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND amount = ?", itemID, amount).
		First(&bid).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetItemBids retrieves the bid history for an item, highest first
func (r *Repository) GetItemBids(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]*models.Bid, error) {
	var bids []*models.Bid
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("amount DESC").
		Limit(limit).
		Offset(offset).
		Find(&bids).Error
	if err != nil {
		return nil, err
	}
	return bids, nil
}

// ListExpiredActiveItems selects items still active whose effective end time
// has passed: the item's own auction_end when set, the owning event's ends_at
// otherwise. Only active items are returned, so an item already processed by
// a previous sweep is excluded by construction.
func (r *Repository) ListExpiredActiveItems(
	ctx context.Context,
	eventID *uuid.UUID,
	now time.Time,
) ([]*models.Item, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN events ON events.id = items.event_id").
		Where("items.status = ?", models.ItemStatusActive).
		Where("(items.auction_end IS NOT NULL AND items.auction_end <= ?) OR (items.auction_end IS NULL AND events.ends_at <= ?)",
			now, now)

	if eventID != nil {
		query = query.Where("items.event_id = ?", *eventID)
	}

	var items []*models.Item
	err := query.Order("items.created_at ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ClaimActiveItem applies updates to an item only if it is still active and
// its current_bid still equals the value the caller observed, and reports
// whether this caller won the claim. Concurrent sweepers racing on the same
// item serialize here, and a bid accepted after the caller's read makes the
// claim miss rather than crown a stale winner.
func (r *Repository) ClaimActiveItem(
	ctx context.Context,
	itemID uuid.UUID,
	priorCurrentBid float64,
	updates map[string]interface{},
) (bool, error) {
	updates["updated_at"] = gorm.Expr("CURRENT_TIMESTAMP")

	result := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND status = ? AND current_bid = ?",
			itemID, models.ItemStatusActive, priorCurrentBid).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// AdvanceItemStatus moves an item from one status to another only if it is
// still in the expected source status.
func (r *Repository) AdvanceItemStatus(
	ctx context.Context,
	itemID uuid.UUID,
	from, to models.ItemStatus,
) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ? AND status = ?", itemID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateNotification records an outbox notification row
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}
