package middleware

import (
	"errors"
	"net/http"
	"strings"

	"groov/config"
	"groov/internal/auth"
	"groov/internal/models"
	"groov/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthRequired validates the bearer token and resolves its subject to a user
// record, which it stores in the context. A valid token whose subject no
// longer exists is a 404, not a 401: the token is genuine but the account is
// gone.
func AuthRequired(cfg *config.JWTConfig, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		userID, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		user, err := users.GetByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// GetUser returns the authenticated user from context (must be used after AuthRequired).
func GetUser(c *gin.Context) *models.User {
	v, _ := c.Get("user")
	if v == nil {
		return nil
	}
	return v.(*models.User)
}
