package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/email"
	"github.com/TinyActive/Feature-Voting-Tool/internal/metrics"
	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/recaptcha"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthHandler owns the magic-link lifecycle: request -> emailed token ->
// single-use verification -> long-lived bearer session.
type AuthHandler struct {
	DB            *gorm.DB
	Mailer        email.Mailer
	Captcha       recaptcha.Verifier
	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	LoginTokenTTL time.Duration
	AppURL        string
}

func NewAuthHandler(db *gorm.DB, mailer email.Mailer, captcha recaptcha.Verifier, jwtSecret, jwtIssuer string, sessionTTLHours, loginTokenTTLMinutes int, appURL string) *AuthHandler {
	if sessionTTLHours <= 0 {
		sessionTTLHours = 720
	}
	if loginTokenTTLMinutes <= 0 {
		loginTokenTTLMinutes = 15
	}
	return &AuthHandler{
		DB:            db,
		Mailer:        mailer,
		Captcha:       captcha,
		JWTSecret:     jwtSecret,
		JWTIssuer:     jwtIssuer,
		SessionTTL:    time.Duration(sessionTTLHours) * time.Hour,
		LoginTokenTTL: time.Duration(loginTokenTTLMinutes) * time.Minute,
		AppURL:        appURL,
	}
}

type loginRequest struct {
	Email          string `json:"email"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// Login handles POST /api/auth/login
//
// The response never reveals whether the user already existed.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Valid email required")
		return
	}

	addr := util.NormalizeEmail(req.Email)
	if err := util.ValidateEmail(addr); err != nil {
		util.Error(c, http.StatusBadRequest, "Valid email required")
		return
	}

	if err := h.Captcha.Verify(c.Request.Context(), req.RecaptchaToken, "login"); err != nil {
		util.Error(c, http.StatusBadRequest, "Security verification failed")
		return
	}

	user, err := h.findOrCreateUser(addr)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to send login email")
		return
	}

	token, err := util.GenerateLoginToken()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to send login email")
		return
	}

	loginToken := models.LoginToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(h.LoginTokenTTL),
	}
	if err := h.DB.Create(&loginToken).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to send login email")
		return
	}

	loginURL := fmt.Sprintf("%s/auth/verify?token=%s", h.AppURL, token)
	msg := email.MagicLink(loginURL)
	msg.To = addr
	if err := h.Mailer.Send(c.Request.Context(), msg); err != nil {
		slog.Error("magic link send failed", "error", err)
		util.Error(c, http.StatusInternalServerError, "Failed to send login email")
		return
	}

	metrics.LoginsTotal.WithLabelValues("requested").Inc()
	util.JSON(c, http.StatusOK, gin.H{
		"success": true,
		"message": "Check your email for a login link",
	})
}

// findOrCreateUser auto-provisions on first contact. An allowlisted email is
// provisioned as admin, and an existing allowlisted user is elevated. This
// is how the first admin comes to exist.
func (h *AuthHandler) findOrCreateUser(addr string) (*models.User, error) {
	allowlisted := false
	var count int64
	if err := h.DB.Model(&models.AdminEmail{}).Where("email = ?", addr).Count(&count).Error; err == nil && count > 0 {
		allowlisted = true
	}

	var user models.User
	err := h.DB.First(&user, "email = ?", addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role := models.RoleUser
		if allowlisted {
			role = models.RoleAdmin
		}
		user = models.User{
			ID:     uuid.NewString(),
			Email:  addr,
			Role:   role,
			Status: models.StatusActive,
		}
		if err := h.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if allowlisted && models.RoleRank(user.Role) < models.RoleRank(models.RoleAdmin) {
		if err := h.DB.Model(&user).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, err
		}
		user.Role = models.RoleAdmin
	}
	return &user, nil
}

// Verify handles GET /api/auth/verify?token=
//
// The magic-link token is single-use: the row is deleted on success and a
// fresh long-lived session is minted in its place. A second verification of
// the same token fails with 401.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		util.Error(c, http.StatusBadRequest, "Token required")
		return
	}

	var loginToken models.LoginToken
	if err := h.DB.First(&loginToken, "token = ?", token).Error; err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		util.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	now := time.Now()
	if loginToken.ExpiresAt.Before(now) {
		// a failed verification also cleans up
		_ = h.DB.Delete(&models.LoginToken{}, "id = ?", loginToken.ID).Error
		metrics.LoginsTotal.WithLabelValues("expired").Inc()
		util.Error(c, http.StatusUnauthorized, "Token expired")
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", loginToken.UserID).Error; err != nil {
		util.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if user.Status == models.StatusBanned {
		util.Error(c, http.StatusForbidden, "Account is banned")
		return
	}

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(h.SessionTTL),
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		// consume the single-use token
		res := tx.Delete(&models.LoginToken{}, "id = ?", loginToken.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// a concurrent verification got here first
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("last_login_at", now).Error; err != nil {
			return err
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		if user.Role == models.RoleAdmin {
			// admin login kicks every other user's session system-wide
			if err := tx.Delete(&models.Session{}, "user_id <> ?", user.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to verify token")
		return
	}

	bearer, err := util.GenerateSessionToken(h.JWTSecret, h.JWTIssuer, session.ID, user.ID, h.SessionTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to verify token")
		return
	}

	metrics.LoginsTotal.WithLabelValues("verified").Inc()
	util.JSON(c, http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
		"token": bearer,
	})
}

// Me handles GET /api/auth/me (behind AuthMiddleware).
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	util.JSON(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// Logout handles POST /api/auth/logout. Idempotent: an absent or invalid
// token still yields success.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr := middleware.BearerToken(c)
	if tokenStr != "" {
		if claims, err := util.ParseSessionToken(h.JWTSecret, tokenStr); err == nil {
			_ = h.DB.Delete(&models.Session{}, "id = ?", claims.SessionID).Error
		}
	}
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}
