package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/email"
	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/notify"
	"github.com/TinyActive/Feature-Voting-Tool/internal/recaptcha"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SuggestionHandler owns user-submitted feature ideas and their review.
// Review is terminal: a suggestion is approved or rejected at most once.
type SuggestionHandler struct {
	DB       *gorm.DB
	Mailer   email.Mailer
	Captcha  recaptcha.Verifier
	Notifier notify.Notifier
}

func NewSuggestionHandler(db *gorm.DB, mailer email.Mailer, captcha recaptcha.Verifier, notifier notify.Notifier) *SuggestionHandler {
	return &SuggestionHandler{DB: db, Mailer: mailer, Captcha: captcha, Notifier: notifier}
}

type createSuggestionRequest struct {
	Title          models.LocalizedText `json:"title"`
	Description    models.LocalizedText `json:"description"`
	RecaptchaToken string               `json:"recaptchaToken"`
}

// Create handles POST /api/suggestions (authenticated).
func (h *SuggestionHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := util.ValidateBilingualTitle(req.Title.EN, req.Title.VI); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Captcha.Verify(c.Request.Context(), req.RecaptchaToken, "create_suggestion"); err != nil {
		util.Error(c, http.StatusBadRequest, "Security verification failed")
		return
	}

	suggestion := models.Suggestion{
		ID:      uuid.NewString(),
		UserID:  user.ID,
		TitleEN: req.Title.EN,
		TitleVI: req.Title.VI,
		DescEN:  req.Description.EN,
		DescVI:  req.Description.VI,
		Status:  models.SuggestionPending,
	}
	if err := h.DB.Create(&suggestion).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create suggestion")
		return
	}

	h.Notifier.Notify("💡 New feature suggestion: " + suggestion.TitleEN)

	util.JSON(c, http.StatusCreated, suggestionJSON(suggestion, ""))
}

// ListMine handles GET /api/suggestions (authenticated).
func (h *SuggestionHandler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var suggestions []models.Suggestion
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Find(&suggestions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load suggestions")
		return
	}

	out := make([]gin.H, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, suggestionJSON(s, ""))
	}
	util.JSON(c, http.StatusOK, gin.H{"suggestions": out})
}

// ListAll handles GET /api/admin/suggestions?status= (admin).
func (h *SuggestionHandler) ListAll(c *gin.Context) {
	status := c.DefaultQuery("status", models.SuggestionPending)

	var rows []struct {
		models.Suggestion
		UserEmail string
	}
	err := h.DB.Raw(`
SELECT s.*, u.email AS user_email
FROM suggestions s
LEFT JOIN users u ON s.user_id = u.id
WHERE s.status = ?
ORDER BY s.created_at DESC
`, status).Scan(&rows).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load suggestions")
		return
	}

	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, suggestionJSON(r.Suggestion, r.UserEmail))
	}
	util.JSON(c, http.StatusOK, gin.H{"suggestions": out})
}

// Approve handles POST /api/admin/suggestions/:id/approve. It creates the
// feature and closes the suggestion. Reviewing an already-reviewed
// suggestion is a conflict.
func (h *SuggestionHandler) Approve(c *gin.Context) {
	suggestion, ok := h.loadPending(c)
	if !ok {
		return
	}

	feature := models.Feature{
		ID:      uuid.NewString(),
		TitleEN: suggestion.TitleEN,
		TitleVI: suggestion.TitleVI,
		DescEN:  suggestion.DescEN,
		DescVI:  suggestion.DescVI,
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&feature).Error; err != nil {
			return err
		}
		// guard on status so two concurrent reviews cannot both win
		res := tx.Model(&models.Suggestion{}).
			Where("id = ? AND status = ?", suggestion.ID, models.SuggestionPending).
			Updates(map[string]interface{}{
				"status":              models.SuggestionApproved,
				"approved_feature_id": feature.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errSuggestionReviewed
		}
		return nil
	})
	if errors.Is(err, errSuggestionReviewed) {
		util.Error(c, http.StatusBadRequest, "Suggestion already reviewed")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to approve suggestion")
		return
	}

	middleware.Audit(h.DB, c, "suggestion_approve", "suggestion", suggestion.ID,
		map[string]interface{}{"featureId": feature.ID})
	h.Notifier.Notify("✨ New feature added: " + feature.TitleEN)
	h.sendOutcome(suggestion.UserID, suggestion.TitleEN, true, "")

	util.JSON(c, http.StatusOK, gin.H{"success": true, "featureId": feature.ID})
}

type rejectSuggestionRequest struct {
	AdminNote string `json:"adminNote"`
}

// Reject handles POST /api/admin/suggestions/:id/reject.
func (h *SuggestionHandler) Reject(c *gin.Context) {
	suggestion, ok := h.loadPending(c)
	if !ok {
		return
	}

	var req rejectSuggestionRequest
	_ = c.ShouldBindJSON(&req) // note is optional, body may be empty

	res := h.DB.Model(&models.Suggestion{}).
		Where("id = ? AND status = ?", suggestion.ID, models.SuggestionPending).
		Updates(map[string]interface{}{
			"status":     models.SuggestionRejected,
			"admin_note": req.AdminNote,
		})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to reject suggestion")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusBadRequest, "Suggestion already reviewed")
		return
	}

	middleware.Audit(h.DB, c, "suggestion_reject", "suggestion", suggestion.ID, nil)
	h.sendOutcome(suggestion.UserID, suggestion.TitleEN, false, req.AdminNote)

	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

var errSuggestionReviewed = errors.New("suggestion already reviewed")

func (h *SuggestionHandler) loadPending(c *gin.Context) (*models.Suggestion, bool) {
	var suggestion models.Suggestion
	if err := h.DB.First(&suggestion, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Suggestion not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to load suggestion")
		}
		return nil, false
	}
	if suggestion.Status != models.SuggestionPending {
		util.Error(c, http.StatusBadRequest, "Suggestion already reviewed")
		return nil, false
	}
	return &suggestion, true
}

// sendOutcome emails the suggester off the request path. The review's
// success never depends on delivery.
func (h *SuggestionHandler) sendOutcome(userID, title string, approved bool, note string) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		msg := email.SuggestionOutcome(title, approved, note)
		msg.To = user.Email
		if err := h.Mailer.Send(ctx, msg); err != nil {
			slog.Warn("suggestion outcome email failed", "error", err)
		}
	}()
}

func suggestionJSON(s models.Suggestion, userEmail string) gin.H {
	out := gin.H{
		"id":          s.ID,
		"title":       models.LocalizedText{EN: s.TitleEN, VI: s.TitleVI},
		"description": models.LocalizedText{EN: s.DescEN, VI: s.DescVI},
		"status":      s.Status,
		"createdAt":   s.CreatedAt.UnixMilli(),
		"updatedAt":   s.UpdatedAt.UnixMilli(),
	}
	if s.AdminNote != "" {
		out["adminNote"] = s.AdminNote
	}
	if s.ApprovedFeatureID != nil {
		out["approvedFeatureId"] = *s.ApprovedFeatureID
	}
	if userEmail != "" {
		out["userEmail"] = userEmail
	}
	return out
}
