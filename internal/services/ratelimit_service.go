package services

import (
	"context"
	"fmt"
	"time"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
)

// Rate-limited action names
const (
	ActionLogin = "login"
	ActionBid   = "bid"
)

// RateLimitRule configures one action: how many attempts fit in a window and
// how long an offender is blocked after exceeding it.
type RateLimitRule struct {
	MaxAttempts int64
	Window      time.Duration
	Block       time.Duration
}

// DefaultRateLimitRules is the static per-action configuration table.
func DefaultRateLimitRules() map[string]RateLimitRule {
	return map[string]RateLimitRule{
		ActionLogin: {MaxAttempts: 5, Window: 15 * time.Minute, Block: 30 * time.Minute},
		ActionBid:   {MaxAttempts: 30, Window: time.Minute, Block: 5 * time.Minute},
	}
}

// RateLimitService is a sliding-window-with-block request limiter keyed by
// (identifier, action), counting through persisted records so multiple server
// instances share the same view.
type RateLimitService struct {
	repo  *repository.Repository
	rules map[string]RateLimitRule
}

func NewRateLimitService(repo *repository.Repository) *RateLimitService {
	return &RateLimitService{
		repo:  repo,
		rules: DefaultRateLimitRules(),
	}
}

// Check allows the attempt or returns *RateLimitedError with the remaining
// block time. Unknown actions pass through unrestricted: a deliberate
// fail-open default for forward compatibility, not a security boundary.
func (s *RateLimitService) Check(ctx context.Context, identifier, action string) error {
	rule, known := s.rules[action]
	if !known {
		return nil
	}

	record, err := s.repo.GetRateLimitRecord(ctx, identifier, action)
	if err != nil {
		return fmt.Errorf("failed to load rate limit record: %w", err)
	}

	now := time.Now()

	// An active block rejects without touching counters.
	if record != nil && record.BlockedUntil != nil && record.BlockedUntil.After(now) {
		return &RateLimitedError{Action: action, RetryAfter: record.BlockedUntil.Sub(now)}
	}

	if record == nil {
		record = &models.RateLimitRecord{
			ID:          uuid.New(),
			Identifier:  identifier,
			Action:      action,
			Attempts:    1,
			WindowStart: now,
		}
		if err := s.repo.CreateRateLimitRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to create rate limit record: %w", err)
		}
		return nil
	}

	if now.Sub(record.WindowStart) >= rule.Window {
		if err := s.repo.ResetRateLimitWindow(ctx, identifier, action, now); err != nil {
			return fmt.Errorf("failed to reset rate limit window: %w", err)
		}
		return nil
	}

	if record.Attempts >= rule.MaxAttempts {
		blockedUntil := now.Add(rule.Block)
		if err := s.repo.BlockRateLimit(ctx, identifier, action, blockedUntil); err != nil {
			return fmt.Errorf("failed to block rate limit record: %w", err)
		}
		return &RateLimitedError{Action: action, RetryAfter: rule.Block}
	}

	if err := s.repo.IncrementRateLimitAttempts(ctx, identifier, action); err != nil {
		return fmt.Errorf("failed to increment rate limit attempts: %w", err)
	}
	return nil
}

// Clear deletes the record for an (identifier, action) pair, e.g. on a
// successful login so earlier failed attempts stop counting.
func (s *RateLimitService) Clear(ctx context.Context, identifier, action string) error {
	return s.repo.DeleteRateLimitRecord(ctx, identifier, action)
}
