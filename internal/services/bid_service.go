package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
)

// buyNowTolerance absorbs float representation noise when comparing a bid
// against the fixed buy-now price.
const buyNowTolerance = 0.001

// BidService validates and records bids against items. Acceptance is
// all-or-nothing: the first failing rule aborts with no side effects, and the
// accept itself is a single conditional update on the current_bid observed at
// validation time, so two concurrent bids can never both clear the increment
// rule against the same stale value.
type BidService struct {
	repo      *repository.Repository
	lifecycle *LifecycleService
	notifier  Notifier
}

func NewBidService(
	repo *repository.Repository,
	lifecycle *LifecycleService,
	notifier Notifier,
) *BidService {
	return &BidService{
		repo:      repo,
		lifecycle: lifecycle,
		notifier:  notifier,
	}
}

// PlaceBid runs the validation ladder and accepts the bid. A lost
// compare-and-set race is retried once against a fresh read, then surfaced as
// an ordinary rejection.
func (s *BidService) PlaceBid(
	ctx context.Context,
	itemID uuid.UUID,
	bidderID uint,
	amount float64,
	isBuyNow bool,
) (*models.BidResult, error) {
	control, err := s.repo.GetAuctionControl(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load auction control: %w", err)
	}
	if control.BiddingPaused {
		return nil, &ValidationError{Reason: "bidding is currently paused"}
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	bidder, err := s.repo.GetUserByID(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bidder: %w", err)
	}

	if err := validateBid(item, bidder, amount, isBuyNow); err != nil {
		return nil, err
	}

	result, err := s.acceptBid(ctx, item, bidder, amount, isBuyNow, control)
	if errors.Is(err, repository.ErrCurrentBidChanged) {
		item, err = s.repo.GetItemByID(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read item: %w", err)
		}
		if err := validateBid(item, bidder, amount, isBuyNow); err != nil {
			return nil, err
		}
		result, err = s.acceptBid(ctx, item, bidder, amount, isBuyNow, control)
		if errors.Is(err, repository.ErrCurrentBidChanged) {
			if isBuyNow {
				return nil, &ValidationError{Reason: "item is no longer available to buy now"}
			}
			return nil, &ValidationError{
				Reason: fmt.Sprintf("bid must be at least £%.2f", item.CurrentBid+item.MinIncrement),
			}
		}
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetItemBids retrieves the bid history for an item
func (s *BidService) GetItemBids(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]*models.Bid, error) {
	return s.repo.GetItemBids(ctx, itemID, limit, offset)
}

// validateBid applies the per-bid rules in order. The reason strings are the
// caller-facing API and stay stable for the same failure cause.
func validateBid(item *models.Item, bidder *models.User, amount float64, isBuyNow bool) error {
	if item.Status != models.ItemStatusActive {
		return &ValidationError{Reason: "item is not open for bidding"}
	}
	if !bidder.EmailVerified {
		return &ValidationError{Reason: "email address must be verified before bidding"}
	}
	if bidder.ID == item.DonorID {
		return &ValidationError{Reason: "donors cannot bid on their own items"}
	}

	if isBuyNow {
		if item.BuyNowPrice == nil {
			return &ValidationError{Reason: "item has no buy now price"}
		}
		if math.Abs(amount-*item.BuyNowPrice) > buyNowTolerance {
			return &ValidationError{
				Reason: fmt.Sprintf("buy now bids must be exactly £%.2f", *item.BuyNowPrice),
			}
		}
		return nil
	}

	if item.CurrentBid <= 0 {
		if amount < item.StartingBid {
			return &ValidationError{
				Reason: fmt.Sprintf("bid must be at least £%.2f", item.StartingBid),
			}
		}
		return nil
	}

	if amount < item.CurrentBid+item.MinIncrement {
		return &ValidationError{
			Reason: fmt.Sprintf("bid must be at least £%.2f", item.CurrentBid+item.MinIncrement),
		}
	}
	return nil
}

// acceptBid inserts the bid through the conditional update and handles the
// accepted-bid side effects: outbid notification of the displaced leader,
// buy-now settlement, Gift Aid annotation.
func (s *BidService) acceptBid(
	ctx context.Context,
	item *models.Item,
	bidder *models.User,
	amount float64,
	isBuyNow bool,
	control models.AuctionControl,
) (*models.BidResult, error) {
	// The displaced leader must be read before the insert: once the new bid
	// lands, the previous leader is no longer derivable from current_bid.
	var previousLeader *models.Bid
	if item.CurrentBid > 0 {
		var err error
		previousLeader, err = s.repo.GetLeadingBid(ctx, item.ID, item.CurrentBid)
		if err != nil {
			return nil, fmt.Errorf("failed to read current leader: %w", err)
		}
	}

	bid := &models.Bid{
		ID:        uuid.New(),
		ItemID:    item.ID,
		BidderID:  bidder.ID,
		Amount:    amount,
		IsBuyNow:  isBuyNow,
		CreatedAt: time.Now(),
	}

	extraUpdates := map[string]interface{}{}
	if isBuyNow {
		// A buy-now bid wins and ends the auction in the same atomic step.
		extraUpdates["winner_id"] = bidder.ID
		extraUpdates["status"] = models.ItemStatusEnded
	}

	if err := s.repo.AcceptBid(ctx, bid, item.CurrentBid, extraUpdates); err != nil {
		if errors.Is(err, repository.ErrCurrentBidChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to accept bid: %w", err)
	}

	if previousLeader != nil && previousLeader.BidderID != bidder.ID {
		s.notifier.NotifyOutbid(ctx, previousLeader.BidderID, item.ID, amount)
	}

	if isBuyNow {
		if err := s.lifecycle.RecordWinnerPayment(ctx, item.ID, bidder.ID, amount, control); err != nil {
			log.Printf("[BidService] failed to record buy-now payment for item %s: %v", item.ID, err)
		}
	}

	marketValue := 0.0
	if item.MarketValue != nil {
		marketValue = *item.MarketValue
	}

	return &models.BidResult{
		BidID:           bid.ID,
		ItemID:          item.ID,
		BidderID:        bidder.ID,
		Amount:          amount,
		IsBuyNow:        isBuyNow,
		GiftAidEstimate: EstimateGiftAid(amount, marketValue),
	}, nil
}
