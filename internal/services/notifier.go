package services

import (
	"context"
	"log"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
)

// Notifier records best-effort bidder notifications. Implementations must
// swallow their own failures: bid acceptance and lifecycle transitions never
// depend on a notification landing.
type Notifier interface {
	NotifyOutbid(ctx context.Context, userID uint, itemID uuid.UUID, newAmount float64)
	NotifyWinner(ctx context.Context, userID uint, itemID uuid.UUID, amount float64)
}

// OutboxNotifier persists notification rows for an external sender to pick
// up, so delivery failures can never affect the operation that emitted them.
type OutboxNotifier struct {
	repo *repository.Repository
}

func NewOutboxNotifier(repo *repository.Repository) *OutboxNotifier {
	return &OutboxNotifier{repo: repo}
}

func (n *OutboxNotifier) NotifyOutbid(ctx context.Context, userID uint, itemID uuid.UUID, newAmount float64) {
	n.record(ctx, models.NotificationKindOutbid, userID, itemID, newAmount)
}

func (n *OutboxNotifier) NotifyWinner(ctx context.Context, userID uint, itemID uuid.UUID, amount float64) {
	n.record(ctx, models.NotificationKindWinner, userID, itemID, amount)
}

func (n *OutboxNotifier) record(ctx context.Context, kind models.NotificationKind, userID uint, itemID uuid.UUID, amount float64) {
	notification := &models.Notification{
		ID:     uuid.New(),
		Kind:   kind,
		UserID: userID,
		ItemID: itemID,
		Amount: amount,
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		log.Printf("[Notifier] failed to record %s notification for user %d: %v", kind, userID, err)
	}
}
