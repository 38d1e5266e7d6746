package handlers

import (
	"net/http"
	"strconv"

	"charity-auction/internal/models"
	"charity-auction/internal/repository"
	"charity-auction/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventHandler struct {
	repo      *repository.Repository
	lifecycle *services.LifecycleService
}

func NewEventHandler(repo *repository.Repository, lifecycle *services.LifecycleService) *EventHandler {
	return &EventHandler{
		repo:      repo,
		lifecycle: lifecycle,
	}
}

// GetEvents lists events
// GET /api/events
func (h *EventHandler) GetEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var status *models.EventStatus
	if raw := c.Query("status"); raw != "" {
		s := models.EventStatus(raw)
		status = &s
	}

	events, err := h.repo.ListEvents(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent retrieves an event by ID or slug
// GET /api/events/:id
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("id")

	var event *models.Event
	var err error
	if eventID, parseErr := uuid.Parse(ref); parseErr == nil {
		event, err = h.repo.GetEventByID(ctx, eventID)
	} else {
		event, err = h.repo.GetEventBySlug(ctx, ref)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// GetEventItems lists an event's items, addressed by event ID or slug
// GET /api/events/:id/items
func (h *EventHandler) GetEventItems(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("id")

	eventID, err := uuid.Parse(ref)
	if err != nil {
		event, slugErr := h.repo.GetEventBySlug(ctx, ref)
		if slugErr != nil {
			respondServiceError(c, slugErr)
			return
		}
		eventID = event.ID
	}

	items, err := h.repo.GetEventItems(ctx, eventID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetItem retrieves an item by ID or slug
// GET /api/items/:id
func (h *EventHandler) GetItem(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("id")

	var item *models.Item
	var err error
	if itemID, parseErr := uuid.Parse(ref); parseErr == nil {
		item, err = h.repo.GetItemByID(ctx, itemID)
	} else {
		item, err = h.repo.GetItemBySlug(ctx, ref)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

// TransitionEvent advances an event one step along its lifecycle
// POST /api/admin/events/:id/transition
func (h *EventHandler) TransitionEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.TransitionEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.lifecycle.TransitionEvent(c.Request.Context(), eventID, req.Target)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
