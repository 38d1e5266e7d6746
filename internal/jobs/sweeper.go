package jobs

import (
	"context"
	"log"
	"time"

	"charity-auction/internal/services"
)

// Sweeper periodically drives end-of-auction processing for expired items.
// The sweep itself is idempotent, so the ticker interval only bounds how late
// a winner is determined after an item's end time.
type Sweeper struct {
	lifecycle *services.LifecycleService
	interval  time.Duration
	stopChan  chan struct{}
}

// NewSweeper creates a new sweeper job
func NewSweeper(lifecycle *services.LifecycleService, interval time.Duration) *Sweeper {
	return &Sweeper{
		lifecycle: lifecycle,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the sweep loop
func (s *Sweeper) Start() {
	log.Printf("[Sweeper] Starting auction sweep job (interval: %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			log.Println("[Sweeper] Stopping auction sweep job")
			return
		}
	}
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	close(s.stopChan)
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	processed, err := s.lifecycle.SweepExpiredItems(ctx, nil)
	if err != nil {
		log.Printf("[Sweeper] sweep failed: %v", err)
		return
	}

	if processed > 0 {
		log.Printf("[Sweeper] Processed %d expired items", processed)
	}
}
