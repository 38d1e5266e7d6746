package handlers

import (
	"errors"
	"net/http"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"
	"charity-auction/internal/services"
	"charity-auction/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminHandler struct {
	repo      *repository.Repository
	lifecycle *services.LifecycleService
}

func NewAdminHandler(repo *repository.Repository, lifecycle *services.LifecycleService) *AdminHandler {
	return &AdminHandler{
		repo:      repo,
		lifecycle: lifecycle,
	}
}

// CreateEvent creates a new draft event
// POST /api/admin/events
func (h *AdminHandler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.EndsAt.After(req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be after starts_at"})
		return
	}

	slug, err := utils.GenerateSlug(req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	event := &models.Event{
		ID:          uuid.New(),
		Slug:        slug,
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      models.EventStatusDraft,
	}
	if err := h.repo.CreateEvent(c.Request.Context(), event); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// CreateItem adds a lot to an event. Lots added while the event is already
// running open for bidding immediately; earlier ones wait for activation.
// POST /api/admin/items
func (h *AdminHandler) CreateItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	event, err := h.repo.GetEventByID(ctx, req.EventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if event.Status == models.EventStatusEnded || event.Status == models.EventStatusClosed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "event is no longer accepting items"})
		return
	}

	slug, err := utils.GenerateSlug(req.Title)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := models.ItemStatusPending
	if event.Status == models.EventStatusActive {
		status = models.ItemStatusActive
	}

	item := &models.Item{
		ID:           uuid.New(),
		Slug:         slug,
		EventID:      req.EventID,
		DonorID:      req.DonorID,
		Title:        req.Title,
		Description:  req.Description,
		StartingBid:  req.StartingBid,
		MinIncrement: req.MinIncrement,
		BuyNowPrice:  req.BuyNowPrice,
		MarketValue:  req.MarketValue,
		AuctionEnd:   req.AuctionEnd,
		Status:       status,
	}
	if err := h.repo.CreateItem(ctx, item); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// SweepExpiredItems triggers the end-of-auction sweep, optionally scoped to
// one event. Safe to call repeatedly.
// POST /api/admin/sweep
func (h *AdminHandler) SweepExpiredItems(c *gin.Context) {
	var eventID *uuid.UUID
	if raw := c.Query("event_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}
		eventID = &parsed
	}

	processed, err := h.lifecycle.SweepExpiredItems(c.Request.Context(), eventID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

// EndItem immediately ends a single active auction
// POST /api/admin/items/:id/end
func (h *AdminHandler) EndItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.lifecycle.EndItem(c.Request.Context(), itemID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

// RequestPayment sends the payment request for a pending payment
// POST /api/admin/payments/:id/request
func (h *AdminHandler) RequestPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	if err := h.lifecycle.RequestPayment(c.Request.Context(), paymentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(models.PaymentStatusRequestSent)})
}

// CompletePayment marks a payment as settled
// POST /api/admin/payments/:id/complete
func (h *AdminHandler) CompletePayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	if err := h.lifecycle.MarkPaymentCompleted(c.Request.Context(), paymentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(models.PaymentStatusCompleted)})
}

// GetItemPayment retrieves the payment for an item
// GET /api/admin/items/:id/payment
func (h *AdminHandler) GetItemPayment(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	payment, err := h.repo.GetPaymentByItem(c.Request.Context(), itemID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no payment for item"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UpdateSettings toggles the operator control flags
// PUT /api/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.BiddingPaused != nil {
		if err := h.repo.SetSetting(ctx, models.SettingBiddingPaused, boolValue(*req.BiddingPaused)); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if req.AutoPaymentRequests != nil {
		if err := h.repo.SetSetting(ctx, models.SettingAutoPaymentRequests, boolValue(*req.AutoPaymentRequests)); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	control, err := h.repo.GetAuctionControl(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, control)
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
