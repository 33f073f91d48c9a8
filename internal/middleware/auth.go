package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ctxUserKey    = "currentUser"
	ctxSessionKey = "currentSession"
)

// BearerToken extracts the credential from a request. The Authorization
// header wins; the token query parameter exists for download links that
// cannot set headers.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}

// AuthMiddleware resolves the bearer token to a user and session. The JWT
// proves integrity; the session row is authoritative for revocation. A
// signed, unexpired token whose row is gone (logout, ban, admin kick) does
// not authorize.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		claims, err := util.ParseSessionToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}

		var session models.Session
		if err := db.First(&session, "id = ?", claims.SessionID).Error; err != nil {
			util.Error(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}
		if !session.Valid(time.Now()) {
			// expired rows are inert; clean up on contact
			_ = db.Delete(&models.Session{}, "id = ?", session.ID).Error
			util.Error(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", session.UserID).Error; err != nil {
			util.Error(c, http.StatusUnauthorized, "Invalid or expired session")
			c.Abort()
			return
		}
		if user.Status == models.StatusBanned {
			util.Error(c, http.StatusForbidden, "Account is banned")
			c.Abort()
			return
		}

		c.Set(ctxUserKey, &user)
		c.Set(ctxSessionKey, &session)
		c.Next()
	}
}

// RequireRole gates a route group on the role hierarchy: authorized iff
// rank(user.role) >= rank(required). Every admin- and moderator-only call
// site goes through this one comparison.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			util.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		if models.RoleRank(user.Role) < models.RoleRank(required) {
			util.Error(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// CurrentSession returns the session set by AuthMiddleware, or nil.
func CurrentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}
