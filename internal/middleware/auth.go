package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/90n9/talepick/internal/logging"
	"github.com/90n9/talepick/internal/models"
	"github.com/90n9/talepick/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware
const (
	ContextUserKey    = "user"
	ContextSessionKey = "session"
)

// Auth validates the Bearer session token, slides its expiry forward, and
// loads the account into the request context
func Auth(sessions *services.SessionService, users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		session, err := sessions.Touch(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, models.ErrSessionExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
			} else {
				logging.Logger.Error("failed to validate session", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate session"})
			}
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), session.UserID)
		if err != nil {
			logging.Logger.Error("failed to load session user", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
			c.Abort()
			return
		}
		if user.IsBanned() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is banned"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// RequireAdmin checks that the authenticated user has the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := CurrentUser(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user from the request context
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// CurrentSession returns the authenticated session from the request context
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}
