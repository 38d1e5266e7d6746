package handlers

import (
	"fmt"

	"charity-auction/internal/auth"
	"charity-auction/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware runs the sliding-window check for one action before the
// handler. The identifier is the authenticated user when present, the client
// IP otherwise, so anonymous and logged-in traffic are counted separately.
func RateLimitMiddleware(rateLimit *services.RateLimitService, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.ClientIP()
		if userID, ok := auth.GetUserID(c); ok {
			identifier = fmt.Sprintf("user:%d", userID)
		}

		if err := rateLimit.Check(c.Request.Context(), identifier, action); err != nil {
			respondServiceError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
