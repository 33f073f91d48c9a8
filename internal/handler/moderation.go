package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ModerationHandler serves the comment moderation surface. Routes are mounted
// behind RequireRole(moderator), so an admin passes too.
type ModerationHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewModerationHandler(db *gorm.DB, pageSize int) *ModerationHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ModerationHandler{DB: db, PageSize: pageSize}
}

// List handles GET /api/admin/comments?status=&feature_id=&page=
func (h *ModerationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	q := h.DB.Model(&models.Comment{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if featureID := c.Query("feature_id"); featureID != "" {
		q = q.Where("feature_id = ?", featureID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	var comments []models.Comment
	if err := q.Order("created_at DESC").
		Limit(h.PageSize).Offset((page - 1) * h.PageSize).
		Find(&comments).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	out := make([]gin.H, 0, len(comments))
	for _, cm := range comments {
		out = append(out, gin.H{
			"id":        cm.ID,
			"featureId": cm.FeatureID,
			"userId":    cm.UserID,
			"parentId":  cm.ParentID,
			"content":   cm.Content,
			"status":    cm.Status,
			"createdAt": cm.CreatedAt.UnixMilli(),
		})
	}
	util.JSON(c, http.StatusOK, gin.H{
		"comments": out,
		"pagination": gin.H{
			"page":    page,
			"perPage": h.PageSize,
			"total":   total,
		},
	})
}

// Stats handles GET /api/admin/comments/stats
func (h *ModerationHandler) Stats(c *gin.Context) {
	var total, active, hidden int64
	if err := h.DB.Model(&models.Comment{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	_ = h.DB.Model(&models.Comment{}).Where("status = ?", models.CommentActive).Count(&active).Error
	_ = h.DB.Model(&models.Comment{}).Where("status = ?", models.CommentHidden).Count(&hidden).Error

	util.JSON(c, http.StatusOK, gin.H{
		"total":  total,
		"active": active,
		"hidden": hidden,
	})
}

type commentStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/admin/comments/:id/status
func (h *ModerationHandler) UpdateStatus(c *gin.Context) {
	var req commentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	h.setStatus(c, req.Status)
}

// Hide handles POST /api/admin/comments/:id/hide
func (h *ModerationHandler) Hide(c *gin.Context) {
	h.setStatus(c, models.CommentHidden)
}

// Show handles POST /api/admin/comments/:id/show
func (h *ModerationHandler) Show(c *gin.Context) {
	h.setStatus(c, models.CommentActive)
}

func (h *ModerationHandler) setStatus(c *gin.Context, status string) {
	if status != models.CommentActive && status != models.CommentHidden {
		util.Error(c, http.StatusBadRequest, "Invalid status")
		return
	}

	commentID := c.Param("id")
	res := h.DB.Model(&models.Comment{}).Where("id = ?", commentID).Update("status", status)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Comment not found")
		return
	}

	middleware.Audit(h.DB, c, "comment_status", "comment", commentID, map[string]interface{}{"status": status})
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Delete handles DELETE /api/admin/comments/:id. The removal is permanent.
func (h *ModerationHandler) Delete(c *gin.Context) {
	commentID := c.Param("id")

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Comment not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to delete comment")
		}
		return
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	middleware.Audit(h.DB, c, "comment_delete", "comment", commentID, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}
