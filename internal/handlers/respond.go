package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"charity-auction/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondServiceError maps engine errors to HTTP responses. Validation and
// transition reasons pass through verbatim; everything else is a 500 with the
// detail kept in the server log.
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Reason})
		return
	}

	var transitionErr *services.TransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
		return
	}

	var rateLimitedErr *services.RateLimitedError
	if errors.As(err, &rateLimitedErr) {
		retryAfter := int(rateLimitedErr.RetryAfter.Seconds())
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       rateLimitedErr.Error(),
			"retry_after": retryAfter,
		})
		return
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	log.Printf("[API] internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
