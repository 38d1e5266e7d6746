package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newLifecycleService(repo *repository.Repository) (*LifecycleService, *stubGateway) {
	gateway := &stubGateway{}
	return NewLifecycleService(repo, gateway, NewOutboxNotifier(repo)), gateway
}

func placeWinningBid(t *testing.T, repo *repository.Repository, item *models.Item, bidderID uint, amount float64) {
	t.Helper()
	bid := &models.Bid{
		ID:        uuid.New(),
		ItemID:    item.ID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := repo.AcceptBid(context.Background(), bid, item.CurrentBid, nil); err != nil {
		t.Fatalf("failed to place bid: %v", err)
	}
	item.CurrentBid = amount
}

func TestEventTransitionChain(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	event := createEvent(t, db, models.EventStatusDraft, time.Now().Add(time.Hour))

	chain := []models.EventStatus{
		models.EventStatusPublished,
		models.EventStatusActive,
		models.EventStatusEnded,
		models.EventStatusClosed,
	}
	for _, target := range chain {
		updated, err := svc.TransitionEvent(ctx, event.ID, target)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Errorf("expected status %s, got %s", target, updated.Status)
		}
	}

	// Closed is terminal.
	_, err := svc.TransitionEvent(ctx, event.ID, models.EventStatusDraft)
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError from closed, got %v", err)
	}
}

func TestEventTransitionSkipRejected(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	event := createEvent(t, db, models.EventStatusDraft, time.Now().Add(time.Hour))

	_, err := svc.TransitionEvent(ctx, event.ID, models.EventStatusActive)
	var terr *TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError for draft -> active, got %v", err)
	}
	if terr.From != models.EventStatusDraft || terr.To != models.EventStatusActive {
		t.Errorf("unexpected transition error: %v", terr)
	}

	// The rejected transition mutated nothing.
	current, err := repo.GetEventByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("failed to reload event: %v", err)
	}
	if current.Status != models.EventStatusDraft {
		t.Errorf("expected event still draft, got %s", current.Status)
	}
}

func TestActivatingEventOpensPendingItems(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	event := createEvent(t, db, models.EventStatusPublished, time.Now().Add(time.Hour))
	pending := createItem(t, db, event, 1, models.ItemStatusPending)
	ended := createItem(t, db, event, 1, models.ItemStatusEnded)

	if _, err := svc.TransitionEvent(ctx, event.ID, models.EventStatusActive); err != nil {
		t.Fatalf("failed to activate event: %v", err)
	}

	if got := reloadItem(t, db, pending.ID); got.Status != models.ItemStatusActive {
		t.Errorf("expected pending item opened for bidding, got %s", got.Status)
	}
	if got := reloadItem(t, db, ended.ID); got.Status != models.ItemStatusEnded {
		t.Errorf("expected ended item untouched, got %s", got.Status)
	}
}

func TestSweepWinnerPathIdempotent(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)
	placeWinningBid(t, repo, item, 2, 75)

	processed, err := svc.SweepExpiredItems(ctx, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 item processed, got %d", processed)
	}

	got := reloadItem(t, db, item.ID)
	if got.Status != models.ItemStatusAwaitingPayment {
		t.Errorf("expected awaiting_payment, got %s", got.Status)
	}
	if got.WinnerID == nil || *got.WinnerID != 2 {
		t.Errorf("expected winner 2, got %v", got.WinnerID)
	}

	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("failed to read payment: %v", err)
	}
	if payment == nil {
		t.Fatal("expected a payment row")
	}
	if payment.WinnerID != 2 || payment.Amount != 75 || payment.Status != models.PaymentStatusPending {
		t.Errorf("unexpected payment: %+v", payment)
	}

	var winnerNotes int64
	err = db.Model(&models.Notification{}).
		Where("kind = ? AND user_id = ?", models.NotificationKindWinner, 2).
		Count(&winnerNotes).Error
	if err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if winnerNotes != 1 {
		t.Errorf("expected one winner notification, got %d", winnerNotes)
	}

	// A second sweep finds nothing and creates nothing.
	processed, err = svc.SweepExpiredItems(ctx, nil)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if processed != 0 {
		t.Errorf("expected 0 items on second sweep, got %d", processed)
	}
	var paymentRows int64
	if err := db.Model(&models.Payment{}).Where("item_id = ?", item.ID).Count(&paymentRows).Error; err != nil {
		t.Fatalf("failed to count payments: %v", err)
	}
	if paymentRows != 1 {
		t.Errorf("expected exactly one payment after two sweeps, got %d", paymentRows)
	}
}

func TestSweepSeesBidAcceptedAfterSnapshot(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)

	// The sweep reads its candidates first; a bid is still accepted before
	// the claim because the item is active until claimed.
	snapshot, err := repo.ListExpiredActiveItems(ctx, nil, time.Now())
	if err != nil {
		t.Fatalf("failed to list expired items: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].CurrentBid != 0 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	placeWinningBid(t, repo, item, 2, 75)

	control, err := repo.GetAuctionControl(ctx)
	if err != nil {
		t.Fatalf("failed to load control: %v", err)
	}
	if err := svc.processEndedItem(ctx, snapshot[0], control); err != nil {
		t.Fatalf("failed to process item: %v", err)
	}

	got := reloadItem(t, db, item.ID)
	if got.Status != models.ItemStatusAwaitingPayment {
		t.Errorf("expected awaiting_payment, got %s", got.Status)
	}
	if got.WinnerID == nil || *got.WinnerID != 2 {
		t.Errorf("expected winner 2, got %v", got.WinnerID)
	}

	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("failed to read payment: %v", err)
	}
	if payment == nil {
		t.Fatal("expected a payment for the late bid")
	}
	if payment.WinnerID != 2 || payment.Amount != 75 {
		t.Errorf("unexpected payment: %+v", payment)
	}
}

func TestSweepSeesRaiseAcceptedAfterSnapshot(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	createUser(t, db, 3, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)
	placeWinningBid(t, repo, item, 2, 75)

	snapshot, err := repo.ListExpiredActiveItems(ctx, nil, time.Now())
	if err != nil {
		t.Fatalf("failed to list expired items: %v", err)
	}
	if len(snapshot) != 1 || snapshot[0].CurrentBid != 75 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	// Bidder 3 raises after the snapshot; the stale snapshot must not crown
	// bidder 2.
	placeWinningBid(t, repo, item, 3, 80)

	control, err := repo.GetAuctionControl(ctx)
	if err != nil {
		t.Fatalf("failed to load control: %v", err)
	}
	if err := svc.processEndedItem(ctx, snapshot[0], control); err != nil {
		t.Fatalf("failed to process item: %v", err)
	}

	got := reloadItem(t, db, item.ID)
	if got.Status != models.ItemStatusAwaitingPayment {
		t.Errorf("expected awaiting_payment, got %s", got.Status)
	}
	if got.WinnerID == nil || *got.WinnerID != 3 {
		t.Errorf("expected winner 3, got %v", got.WinnerID)
	}

	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("failed to read payment: %v", err)
	}
	if payment == nil {
		t.Fatal("expected a payment for the raised bid")
	}
	if payment.WinnerID != 3 || payment.Amount != 80 {
		t.Errorf("unexpected payment: %+v", payment)
	}
}

func TestSweepNoBids(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)

	processed, err := svc.SweepExpiredItems(ctx, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 item processed, got %d", processed)
	}

	got := reloadItem(t, db, item.ID)
	if got.Status != models.ItemStatusEnded {
		t.Errorf("expected ended, got %s", got.Status)
	}
	if got.WinnerID != nil {
		t.Errorf("expected no winner, got %v", got.WinnerID)
	}

	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("failed to read payment: %v", err)
	}
	if payment != nil {
		t.Error("no-bid items must not create payments")
	}
}

func TestSweepItemAuctionEndPrecedence(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	// The event is still running; one item has its own earlier close.
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(time.Hour))
	early := createItem(t, db, event, 1, models.ItemStatusActive)
	late := createItem(t, db, event, 1, models.ItemStatusActive)
	pastEnd := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Item{}).Where("id = ?", early.ID).Update("auction_end", pastEnd).Error; err != nil {
		t.Fatalf("failed to set auction end: %v", err)
	}

	processed, err := svc.SweepExpiredItems(ctx, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected only the early item processed, got %d", processed)
	}

	if got := reloadItem(t, db, early.ID); got.Status != models.ItemStatusEnded {
		t.Errorf("expected early item ended, got %s", got.Status)
	}
	if got := reloadItem(t, db, late.ID); got.Status != models.ItemStatusActive {
		t.Errorf("expected late item untouched, got %s", got.Status)
	}
}

func TestSweepScopedToEvent(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	eventA := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	eventB := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	itemA := createItem(t, db, eventA, 1, models.ItemStatusActive)
	itemB := createItem(t, db, eventB, 1, models.ItemStatusActive)

	processed, err := svc.SweepExpiredItems(ctx, &eventA.ID)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 item processed, got %d", processed)
	}
	if got := reloadItem(t, db, itemA.ID); got.Status != models.ItemStatusEnded {
		t.Errorf("expected item in swept event ended, got %s", got.Status)
	}
	if got := reloadItem(t, db, itemB.ID); got.Status != models.ItemStatusActive {
		t.Errorf("expected item in other event untouched, got %s", got.Status)
	}
}

func TestEndingEventEndsItsItems(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	// Ends well in the future; the admin pulls the plug early.
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(time.Hour))
	item := createItem(t, db, event, 1, models.ItemStatusActive)
	placeWinningBid(t, repo, item, 2, 75)

	if _, err := svc.TransitionEvent(ctx, event.ID, models.EventStatusEnded); err != nil {
		t.Fatalf("failed to end event: %v", err)
	}

	got := reloadItem(t, db, item.ID)
	if got.Status != models.ItemStatusAwaitingPayment {
		t.Errorf("expected awaiting_payment after event end, got %s", got.Status)
	}
	if got.WinnerID == nil || *got.WinnerID != 2 {
		t.Errorf("expected winner 2, got %v", got.WinnerID)
	}
}

func TestEndItem(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(time.Hour))
	item := createItem(t, db, event, 1, models.ItemStatusActive)

	if err := svc.EndItem(ctx, item.ID); err != nil {
		t.Fatalf("failed to end item: %v", err)
	}
	if got := reloadItem(t, db, item.ID); got.Status != models.ItemStatusEnded {
		t.Errorf("expected ended, got %s", got.Status)
	}

	// Ending again is rejected, not re-processed.
	err := svc.EndItem(ctx, item.ID)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError on double end, got %v", err)
	}
	if verr.Reason != "item is not an active auction" {
		t.Errorf("unexpected reason: %q", verr.Reason)
	}
}

func TestPaymentFlow(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, gateway := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)
	placeWinningBid(t, repo, item, 2, 75)

	if _, err := svc.SweepExpiredItems(ctx, nil); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil || payment == nil {
		t.Fatalf("expected payment after sweep: %v", err)
	}

	if err := svc.RequestPayment(ctx, payment.ID); err != nil {
		t.Fatalf("failed to request payment: %v", err)
	}
	payment, err = repo.GetPaymentByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if payment.Status != models.PaymentStatusRequestSent {
		t.Errorf("expected request_sent, got %s", payment.Status)
	}
	if payment.RequestedAt == nil {
		t.Error("expected requested_at set")
	}
	if len(gateway.requested) != 1 || gateway.requested[0] != payment.ID {
		t.Errorf("expected one gateway request for %s, got %v", payment.ID, gateway.requested)
	}

	// A second request is rejected.
	err = svc.RequestPayment(ctx, payment.ID)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Reason != "payment request has already been sent" {
		t.Errorf("expected duplicate request rejection, got %v", err)
	}

	if err := svc.MarkPaymentCompleted(ctx, payment.ID); err != nil {
		t.Fatalf("failed to complete payment: %v", err)
	}
	payment, err = repo.GetPaymentByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if payment.Status != models.PaymentStatusCompleted {
		t.Errorf("expected completed, got %s", payment.Status)
	}
	if payment.CompletedAt == nil {
		t.Error("expected completed_at set")
	}
	if got := reloadItem(t, db, item.ID); got.Status != models.ItemStatusSold {
		t.Errorf("expected item sold, got %s", got.Status)
	}
	if len(gateway.paid) != 1 || gateway.paid[0] != payment.ID {
		t.Errorf("expected gateway confirmation for %s, got %v", payment.ID, gateway.paid)
	}

	// Completing twice is rejected.
	err = svc.MarkPaymentCompleted(ctx, payment.ID)
	if !errors.As(err, &verr) || verr.Reason != "payment is not awaiting completion" {
		t.Errorf("expected double completion rejection, got %v", err)
	}
}

func TestRequestPaymentGatewayFailure(t *testing.T) {
	db, repo := setupTestDB(t)
	svc, gateway := newLifecycleService(repo)
	ctx := context.Background()

	createUser(t, db, 1, true)
	createUser(t, db, 2, true)
	event := createEvent(t, db, models.EventStatusActive, time.Now().Add(-time.Minute))
	item := createItem(t, db, event, 1, models.ItemStatusActive)
	placeWinningBid(t, repo, item, 2, 75)
	if _, err := svc.SweepExpiredItems(ctx, nil); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	payment, err := repo.GetPaymentByItem(ctx, item.ID)
	if err != nil || payment == nil {
		t.Fatalf("expected payment after sweep: %v", err)
	}

	gateway.fail = true
	if err := svc.RequestPayment(ctx, payment.ID); err == nil {
		t.Fatal("expected error when the gateway is down")
	}

	// The payment stays pending, so the request can be retried later.
	payment, err = repo.GetPaymentByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("failed to reload payment: %v", err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Errorf("expected pending after gateway failure, got %s", payment.Status)
	}
}

func TestTransitionEventNotFound(t *testing.T) {
	_, repo := setupTestDB(t)
	svc, _ := newLifecycleService(repo)

	_, err := svc.TransitionEvent(context.Background(), uuid.New(), models.EventStatusPublished)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}
