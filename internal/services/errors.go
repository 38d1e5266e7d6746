package services

import (
	"fmt"
	"time"

	"charity-auction/internal/models"
)

// ValidationError rejects a bid or admin action with a plain-language reason.
// The reason is surfaced verbatim to the caller and is stable for the same
// failure cause. Validation failures are never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// TransitionError rejects an illegal event state-machine edge. No mutation
// happens on a rejected transition.
type TransitionError struct {
	From models.EventStatus
	To   models.EventStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition event from %s to %s", e.From, e.To)
}

// RateLimitedError tells the caller to back off for RetryAfter.
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many %s attempts, try again in %d seconds", e.Action, int(e.RetryAfter.Seconds()))
}
