package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"charity-auction/internal/models"
	"charity-auction/internal/payments"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
)

// LifecycleService owns the Event and Item state machines: admin-driven event
// transitions, end-of-auction winner determination, and payment-record
// creation. Item transitions out of active are one-shot: the status-guarded
// claim in the repository makes concurrent sweepers converge on a single
// terminal state per item.
type LifecycleService struct {
	repo     *repository.Repository
	gateway  payments.Gateway
	notifier Notifier
}

func NewLifecycleService(
	repo *repository.Repository,
	gateway payments.Gateway,
	notifier Notifier,
) *LifecycleService {
	return &LifecycleService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
	}
}

// TransitionEvent advances an event along draft -> published -> active ->
// ended -> closed. Only the exact next state is legal; anything else is a
// TransitionError with no mutation. Ending an event also sweeps its items so
// manual early closure and natural expiry behave identically at item level.
func (s *LifecycleService) TransitionEvent(
	ctx context.Context,
	eventID uuid.UUID,
	target models.EventStatus,
) (*models.Event, error) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	next, hasNext := models.NextEventStatus(event.Status)
	if !hasNext || next != target {
		return nil, &TransitionError{From: event.Status, To: target}
	}

	advanced, err := s.repo.AdvanceEventStatus(ctx, eventID, event.Status, target)
	if err != nil {
		return nil, fmt.Errorf("failed to advance event status: %w", err)
	}
	if !advanced {
		// Another admin moved the event first; re-read to report the edge.
		current, readErr := s.repo.GetEventByID(ctx, eventID)
		if readErr != nil {
			return nil, fmt.Errorf("failed to re-read event: %w", readErr)
		}
		return nil, &TransitionError{From: current.Status, To: target}
	}
	event.Status = target

	switch target {
	case models.EventStatusActive:
		if err := s.activateEventItems(ctx, event); err != nil {
			log.Printf("[Lifecycle] failed to activate items for event %s: %v", event.ID, err)
		}
	case models.EventStatusEnded:
		if err := s.endEventItems(ctx, event); err != nil {
			log.Printf("[Lifecycle] failed to end items for event %s: %v", event.ID, err)
		}
	}

	log.Printf("[Lifecycle] Event %s transitioned to %s", event.ID, target)
	return event, nil
}

// SweepExpiredItems finds active items whose effective end time has passed
// and drives their end-of-auction processing. Idempotent: a processed item
// leaves active and is excluded from every later sweep. Returns the number of
// items processed.
func (s *LifecycleService) SweepExpiredItems(ctx context.Context, eventID *uuid.UUID) (int, error) {
	control, err := s.repo.GetAuctionControl(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load auction control: %w", err)
	}

	items, err := s.repo.ListExpiredActiveItems(ctx, eventID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired items: %w", err)
	}

	processed := 0
	for _, item := range items {
		if err := s.processEndedItem(ctx, item, control); err != nil {
			log.Printf("[Lifecycle] failed to process ended item %s: %v", item.ID, err)
			continue
		}
		processed++
	}

	if processed > 0 {
		log.Printf("[Lifecycle] Processed %d ended items", processed)
	}
	return processed, nil
}

// EndItem immediately ends a single active item (admin "end auction now"),
// sharing the one-shot processing with the sweep.
func (s *LifecycleService) EndItem(ctx context.Context, itemID uuid.UUID) error {
	control, err := s.repo.GetAuctionControl(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auction control: %w", err)
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}
	if item.Status != models.ItemStatusActive {
		return &ValidationError{Reason: "item is not an active auction"}
	}

	return s.processEndedItem(ctx, item, control)
}

// activateEventItems opens an event's pending lots for bidding when the event
// itself goes active.
func (s *LifecycleService) activateEventItems(ctx context.Context, event *models.Event) error {
	items, err := s.repo.GetEventItems(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list event items: %w", err)
	}

	for _, item := range items {
		if item.Status != models.ItemStatusPending {
			continue
		}
		if _, err := s.repo.AdvanceItemStatus(ctx, item.ID,
			models.ItemStatusPending, models.ItemStatusActive); err != nil {
			log.Printf("[Lifecycle] failed to activate item %s: %v", item.ID, err)
		}
	}
	return nil
}

// endEventItems runs end-of-auction processing over every still-active item
// of an event, regardless of its end time.
func (s *LifecycleService) endEventItems(ctx context.Context, event *models.Event) error {
	control, err := s.repo.GetAuctionControl(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auction control: %w", err)
	}

	items, err := s.repo.GetEventItems(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to list event items: %w", err)
	}

	for _, item := range items {
		if item.Status != models.ItemStatusActive {
			continue
		}
		if err := s.processEndedItem(ctx, item, control); err != nil {
			log.Printf("[Lifecycle] failed to process item %s on event end: %v", item.ID, err)
		}
	}
	return nil
}

// processEndedItem transitions one active item to its terminal state: a
// winner path through awaiting_payment with a payment row, or ended with no
// winner. The claim is conditional on both status and the current_bid the
// winner was derived from, so a bid accepted after the caller's read can
// never be silently dropped; a missed claim is retried against a fresh read.
// Racing sweepers converge on a single terminal state per item.
func (s *LifecycleService) processEndedItem(
	ctx context.Context,
	item *models.Item,
	control models.AuctionControl,
) error {
	for attempt := 0; attempt < 2; attempt++ {
		var winningBid *models.Bid
		if item.CurrentBid > 0 {
			var err error
			winningBid, err = s.repo.GetLeadingBid(ctx, item.ID, item.CurrentBid)
			if err != nil {
				return fmt.Errorf("failed to look up winning bid: %w", err)
			}
		}

		updates := map[string]interface{}{"status": models.ItemStatusEnded}
		if winningBid != nil {
			updates["status"] = models.ItemStatusAwaitingPayment
			updates["winner_id"] = winningBid.BidderID
		}

		claimed, err := s.repo.ClaimActiveItem(ctx, item.ID, item.CurrentBid, updates)
		if err != nil {
			return fmt.Errorf("failed to claim item: %w", err)
		}
		if claimed {
			if winningBid == nil {
				log.Printf("[Lifecycle] Item %s ended with no bids", item.ID)
				return nil
			}
			log.Printf("[Lifecycle] Item %s won by bidder %d at %.2f", item.ID, winningBid.BidderID, winningBid.Amount)
			return s.RecordWinnerPayment(ctx, item.ID, winningBid.BidderID, winningBid.Amount, control)
		}

		item, err = s.repo.GetItemByID(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("failed to re-read item: %w", err)
		}
		if item.Status != models.ItemStatusActive {
			// Another sweeper or a buy-now bid got here first.
			return nil
		}
		// A bid landed after our read; go again with the fresh current_bid.
	}

	// Still racing with live bids; the item stays active for the next sweep.
	log.Printf("[Lifecycle] Item %s still receiving bids, deferring to next sweep", item.ID)
	return nil
}

// RecordWinnerPayment creates the single pending payment for a determined
// winner, optionally fires the payment request, and emits the winner
// notification. Shared by the sweep and the buy-now path.
func (s *LifecycleService) RecordWinnerPayment(
	ctx context.Context,
	itemID uuid.UUID,
	winnerID uint,
	amount float64,
	control models.AuctionControl,
) error {
	payment := &models.Payment{
		ID:       uuid.New(),
		ItemID:   itemID,
		WinnerID: winnerID,
		Amount:   amount,
		Status:   models.PaymentStatusPending,
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	if control.AutoPaymentRequests {
		// Fire-and-forget: the winner determination never waits on the
		// gateway, and a gateway failure leaves the payment pending.
		go s.sendPaymentRequest(payment)
	}

	s.notifier.NotifyWinner(ctx, winnerID, itemID, amount)
	return nil
}

// sendPaymentRequest advances the payment to request_sent once the gateway
// accepts it. Runs detached with its own context.
func (s *LifecycleService) sendPaymentRequest(payment *models.Payment) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.gateway.RequestPayment(ctx, payment); err != nil {
		log.Printf("[Lifecycle] payment request for item %s failed: %v", payment.ItemID, err)
		return
	}

	if _, err := s.repo.AdvancePaymentStatus(ctx, payment.ID,
		models.PaymentStatusPending, models.PaymentStatusRequestSent); err != nil {
		log.Printf("[Lifecycle] failed to mark payment %s as requested: %v", payment.ID, err)
	}
}

// RequestPayment manually advances a pending payment to request_sent through
// the gateway (used when auto payment requests are disabled).
func (s *LifecycleService) RequestPayment(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}
	if payment.Status != models.PaymentStatusPending {
		return &ValidationError{Reason: "payment request has already been sent"}
	}

	if err := s.gateway.RequestPayment(ctx, payment); err != nil {
		return fmt.Errorf("failed to request payment: %w", err)
	}

	if _, err := s.repo.AdvancePaymentStatus(ctx, paymentID,
		models.PaymentStatusPending, models.PaymentStatusRequestSent); err != nil {
		return fmt.Errorf("failed to advance payment status: %w", err)
	}
	return nil
}

// MarkPaymentCompleted settles a payment and moves its item from
// awaiting_payment to sold.
func (s *LifecycleService) MarkPaymentCompleted(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to get payment: %w", err)
	}

	advanced, err := s.repo.AdvancePaymentStatus(ctx, paymentID,
		models.PaymentStatusRequestSent, models.PaymentStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}
	if !advanced {
		// Manual settlement of a payment whose request was never sent.
		advanced, err = s.repo.AdvancePaymentStatus(ctx, paymentID,
			models.PaymentStatusPending, models.PaymentStatusCompleted)
		if err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}
		if !advanced {
			return &ValidationError{Reason: "payment is not awaiting completion"}
		}
	}

	sold, err := s.repo.AdvanceItemStatus(ctx, payment.ItemID,
		models.ItemStatusAwaitingPayment, models.ItemStatusSold)
	if err != nil {
		log.Printf("[Lifecycle] failed to mark item %s as sold: %v", payment.ItemID, err)
	} else if !sold {
		// Buy-now items end directly; move those to sold as well.
		if _, err := s.repo.AdvanceItemStatus(ctx, payment.ItemID,
			models.ItemStatusEnded, models.ItemStatusSold); err != nil {
			log.Printf("[Lifecycle] failed to mark item %s as sold: %v", payment.ItemID, err)
		}
	}

	if err := s.gateway.MarkPaid(ctx, paymentID); err != nil {
		log.Printf("[Lifecycle] failed to confirm payment %s with gateway: %v", paymentID, err)
	}

	log.Printf("[Lifecycle] Payment %s completed", paymentID)
	return nil
}
