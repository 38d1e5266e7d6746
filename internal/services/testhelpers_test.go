package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Mirror structs for SQLite test schemas: same tables and columns as the
// models, without the Postgres-specific gen_random_uuid defaults.

type testEvent struct {
	ID          uuid.UUID          `gorm:"type:uuid;primaryKey"`
	Slug        string             `gorm:"size:255;uniqueIndex;not null"`
	Title       string             `gorm:"size:255;not null"`
	Description string             `gorm:"type:text"`
	StartsAt    time.Time          ``
	EndsAt      time.Time          `gorm:"index"`
	Status      models.EventStatus `gorm:"size:50;not null;default:draft;index"`
	CreatedAt   time.Time          `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time          `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testEvent) TableName() string { return "events" }

type testItem struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Slug         string            `gorm:"size:255;uniqueIndex;not null"`
	EventID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	DonorID      uint              `gorm:"not null;index"`
	Title        string            `gorm:"size:255;not null"`
	Description  string            `gorm:"type:text"`
	StartingBid  float64           `gorm:"type:decimal(12,2);not null"`
	MinIncrement float64           `gorm:"type:decimal(12,2);not null;default:1"`
	BuyNowPrice  *float64          `gorm:"type:decimal(12,2)"`
	MarketValue  *float64          `gorm:"type:decimal(12,2)"`
	CurrentBid   float64           `gorm:"type:decimal(12,2);not null;default:0"`
	BidCount     int64             `gorm:"not null;default:0"`
	WinnerID     *uint             `gorm:"index"`
	AuctionEnd   *time.Time        `gorm:"index"`
	Status       models.ItemStatus `gorm:"size:50;not null;default:draft;index"`
	CreatedAt    time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testItem) TableName() string { return "items" }

type testBid struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BidderID  uint      `gorm:"not null;index"`
	Amount    float64   `gorm:"type:decimal(12,2);not null"`
	IsBuyNow  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testBid) TableName() string { return "bids" }

type testPayment struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ItemID      uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	WinnerID    uint                 `gorm:"not null;index"`
	Amount      float64              `gorm:"type:decimal(12,2);not null"`
	Status      models.PaymentStatus `gorm:"size:50;not null;default:pending;index"`
	RequestedAt *time.Time           ``
	CompletedAt *time.Time           ``
	CreatedAt   time.Time            `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time            `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testPayment) TableName() string { return "payments" }

type testRateLimitRecord struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Identifier   string     `gorm:"size:255;not null;uniqueIndex:idx_rate_limits_identifier_action"`
	Action       string     `gorm:"size:100;not null;uniqueIndex:idx_rate_limits_identifier_action"`
	Attempts     int64      `gorm:"not null;default:1"`
	WindowStart  time.Time  `gorm:"not null"`
	BlockedUntil *time.Time ``
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testRateLimitRecord) TableName() string { return "rate_limit_records" }

type testNotification struct {
	ID        uuid.UUID               `gorm:"type:uuid;primaryKey"`
	Kind      models.NotificationKind `gorm:"size:50;not null;index"`
	UserID    uint                    `gorm:"not null;index"`
	ItemID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Amount    float64                 `gorm:"type:decimal(12,2);not null"`
	SentAt    *time.Time              ``
	CreatedAt time.Time               `gorm:"default:CURRENT_TIMESTAMP"`
}

func (testNotification) TableName() string { return "notifications" }

func setupTestDB(t *testing.T) (*gorm.DB, *repository.Repository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Setting{},
		&testEvent{},
		&testItem{},
		&testBid{},
		&testPayment{},
		&testRateLimitRecord{},
		&testNotification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db, repository.NewRepository(db)
}

// stubGateway records payment gateway calls
type stubGateway struct {
	mu        sync.Mutex
	fail      bool
	requested []uuid.UUID
	paid      []uuid.UUID
}

func (g *stubGateway) RequestPayment(ctx context.Context, payment *models.Payment) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errGatewayDown
	}
	g.requested = append(g.requested, payment.ID)
	return nil
}

func (g *stubGateway) MarkPaid(ctx context.Context, paymentID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return errGatewayDown
	}
	g.paid = append(g.paid, paymentID)
	return nil
}

var errGatewayDown = errors.New("gateway unavailable")

func createUser(t *testing.T, db *gorm.DB, id uint, verified bool) *models.User {
	t.Helper()
	user := &models.User{
		ID:            id,
		Email:         fmt.Sprintf("user%d@example.com", id),
		DisplayName:   "Test User",
		PasswordHash:  "x",
		EmailVerified: verified,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %d: %v", id, err)
	}
	return user
}

func createEvent(t *testing.T, db *gorm.DB, status models.EventStatus, endsAt time.Time) *models.Event {
	t.Helper()
	event := &models.Event{
		ID:       uuid.New(),
		Slug:     "event-" + uuid.NewString()[:8],
		Title:    "Winter Gala",
		StartsAt: endsAt.Add(-24 * time.Hour),
		EndsAt:   endsAt,
		Status:   status,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func createItem(t *testing.T, db *gorm.DB, event *models.Event, donorID uint, status models.ItemStatus) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:           uuid.New(),
		Slug:         "item-" + uuid.NewString()[:8],
		EventID:      event.ID,
		DonorID:      donorID,
		Title:        "Signed Shirt",
		StartingBid:  50,
		MinIncrement: 5,
		Status:       status,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	return item
}

func reloadItem(t *testing.T, db *gorm.DB, itemID uuid.UUID) *models.Item {
	t.Helper()
	var item models.Item
	if err := db.Where("id = ?", itemID).First(&item).Error; err != nil {
		t.Fatalf("failed to reload item: %v", err)
	}
	return &item
}
