package auth

import (
	"context"
	"net/http"

	"lounge/backend/internal/apperror"
	"lounge/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// UserLookup loads the authenticated user's row.
type UserLookup interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// AdminMiddleware creates a gin middleware to check for admin role.
// It must be used AFTER the standard AuthMiddleware.
func AdminMiddleware(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := UserID(c)
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "kind": "unauthorized"})
			return
		}

		user, err := users.User(c.Request.Context(), userID)
		if apperror.Is(err, apperror.KindNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found", "kind": "not_found"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user", "kind": "storage_error"})
			return
		}

		if user.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}
