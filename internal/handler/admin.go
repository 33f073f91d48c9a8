package handler

import (
	"net/http"

	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/notify"
	"github.com/TinyActive/Feature-Voting-Tool/internal/recaptcha"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminHandler serves feature CRUD and the dashboard stats. Routes are
// mounted behind RequireRole(admin).
type AdminHandler struct {
	DB       *gorm.DB
	Captcha  recaptcha.Verifier
	Notifier notify.Notifier
}

func NewAdminHandler(db *gorm.DB, captcha recaptcha.Verifier, notifier notify.Notifier) *AdminHandler {
	return &AdminHandler{DB: db, Captcha: captcha, Notifier: notifier}
}

type featureRequest struct {
	Title          models.LocalizedText  `json:"title"`
	Description    *models.LocalizedText `json:"description"`
	RecaptchaToken string                `json:"recaptchaToken"`
}

// CreateFeature handles POST /api/admin/features
func (h *AdminHandler) CreateFeature(c *gin.Context) {
	var req featureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.Captcha.Verify(c.Request.Context(), req.RecaptchaToken, "admin_create_feature"); err != nil {
		util.Error(c, http.StatusBadRequest, "Security verification failed")
		return
	}
	if err := util.ValidateBilingualTitle(req.Title.EN, req.Title.VI); err != nil {
		util.Error(c, http.StatusBadRequest, "Title (en and vi) required")
		return
	}

	feature := models.Feature{
		ID:      uuid.NewString(),
		TitleEN: req.Title.EN,
		TitleVI: req.Title.VI,
	}
	if req.Description != nil {
		feature.DescEN = req.Description.EN
		feature.DescVI = req.Description.VI
	}
	if err := h.DB.Create(&feature).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create feature")
		return
	}

	middleware.Audit(h.DB, c, "feature_create", "feature", feature.ID, nil)
	h.Notifier.Notify("✨ New feature added: " + feature.TitleEN)

	row, err := getFeatureRow(h.DB, feature.ID)
	if err != nil || row == nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create feature")
		return
	}
	util.JSON(c, http.StatusOK, row.toResponse())
}

// UpdateFeature handles PUT /api/admin/features/:id
func (h *AdminHandler) UpdateFeature(c *gin.Context) {
	featureID := c.Param("id")

	var req featureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := h.Captcha.Verify(c.Request.Context(), req.RecaptchaToken, "admin_update_feature"); err != nil {
		util.Error(c, http.StatusBadRequest, "Security verification failed")
		return
	}

	updates := map[string]interface{}{}
	if req.Title.EN != "" || req.Title.VI != "" {
		if err := util.ValidateBilingualTitle(req.Title.EN, req.Title.VI); err != nil {
			util.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		updates["title_en"] = req.Title.EN
		updates["title_vi"] = req.Title.VI
	}
	if req.Description != nil {
		updates["desc_en"] = req.Description.EN
		updates["desc_vi"] = req.Description.VI
	}
	if len(updates) == 0 {
		util.Error(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	res := h.DB.Model(&models.Feature{}).Where("id = ?", featureID).Updates(updates)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update feature")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Feature not found")
		return
	}

	middleware.Audit(h.DB, c, "feature_update", "feature", featureID, nil)

	row, err := getFeatureRow(h.DB, featureID)
	if err != nil || row == nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update feature")
		return
	}
	util.JSON(c, http.StatusOK, row.toResponse())
}

// DeleteFeature handles DELETE /api/admin/features/:id. The feature's votes
// and comments go with it.
func (h *AdminHandler) DeleteFeature(c *gin.Context) {
	featureID := c.Param("id")

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Feature{}, "id = ?", featureID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Delete(&models.Vote{}, "feature_id = ?", featureID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, "feature_id = ?", featureID).Error
	})
	if err == gorm.ErrRecordNotFound {
		util.Error(c, http.StatusNotFound, "Feature not found")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete feature")
		return
	}

	middleware.Audit(h.DB, c, "feature_delete", "feature", featureID, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	rows, err := listFeatureRows(h.DB)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	var totalVotes int64
	for _, r := range rows {
		totalVotes += r.VotesUp + r.VotesDown
	}

	var topFeature interface{}
	if len(rows) > 0 {
		topFeature = rows[0].toResponse()
	}

	util.JSON(c, http.StatusOK, gin.H{
		"totalFeatures": len(rows),
		"totalVotes":    totalVotes,
		"topFeature":    topFeature,
	})
}
