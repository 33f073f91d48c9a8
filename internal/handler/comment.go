package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentHandler serves the public listing and self-service comment CRUD.
// A valid non-banned session is enough; no elevated role is required.
type CommentHandler struct {
	DB *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{DB: db}
}

type commentRow struct {
	ID         string
	FeatureID  string
	UserID     string
	ParentID   *string
	Content    string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	AuthorName string
}

type commentResponse struct {
	ID         string  `json:"id"`
	FeatureID  string  `json:"featureId"`
	UserID     string  `json:"userId"`
	ParentID   *string `json:"parentId"`
	Content    string  `json:"content"`
	Status     string  `json:"status,omitempty"`
	AuthorName string  `json:"authorName"`
	CreatedAt  int64   `json:"createdAt"`
	UpdatedAt  int64   `json:"updatedAt"`
}

func (r commentRow) toResponse(includeStatus bool) commentResponse {
	status := ""
	if includeStatus {
		status = r.Status
	}
	name := r.AuthorName
	if name == "" {
		name = "Anonymous"
	}
	return commentResponse{
		ID:         r.ID,
		FeatureID:  r.FeatureID,
		UserID:     r.UserID,
		ParentID:   r.ParentID,
		Content:    r.Content,
		Status:     status,
		AuthorName: name,
		CreatedAt:  r.CreatedAt.UnixMilli(),
		UpdatedAt:  r.UpdatedAt.UnixMilli(),
	}
}

// List handles GET /api/features/:id/comments, active comments only.
func (h *CommentHandler) List(c *gin.Context) {
	featureID := c.Param("id")

	var count int64
	if err := h.DB.Model(&models.Feature{}).Where("id = ?", featureID).Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}
	if count == 0 {
		util.Error(c, http.StatusNotFound, "Feature not found")
		return
	}

	var rows []commentRow
	err := h.DB.Raw(`
SELECT c.id, c.feature_id, c.user_id, c.parent_id, c.content, c.status,
       c.created_at, c.updated_at, u.name AS author_name
FROM comments c
LEFT JOIN users u ON c.user_id = u.id
WHERE c.feature_id = ? AND c.status = ?
ORDER BY c.created_at ASC
`, featureID, models.CommentActive).Scan(&rows).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	out := make([]commentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toResponse(false))
	}
	util.JSON(c, http.StatusOK, gin.H{"comments": out})
}

type createCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

// Create handles POST /api/features/:id/comments (authenticated).
func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	featureID := c.Param("id")
	var feature models.Feature
	if err := h.DB.First(&feature, "id = ?", featureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Feature not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to create comment")
		}
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := util.ValidateCommentContent(req.Content); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := h.DB.First(&parent, "id = ? AND feature_id = ?", *req.ParentID, featureID).Error; err != nil {
			util.Error(c, http.StatusBadRequest, "Parent comment not found")
			return
		}
	}

	comment := models.Comment{
		ID:        uuid.NewString(),
		FeatureID: featureID,
		UserID:    user.ID,
		ParentID:  req.ParentID,
		Content:   strings.TrimSpace(req.Content),
		Status:    models.CommentActive,
	}
	if err := h.DB.Create(&comment).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	util.JSON(c, http.StatusCreated, gin.H{
		"id":        comment.ID,
		"featureId": comment.FeatureID,
		"content":   comment.Content,
		"parentId":  comment.ParentID,
		"createdAt": comment.CreatedAt.UnixMilli(),
	})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

// Update handles PUT /api/comments/:id, author only.
func (h *CommentHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Comment not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to update comment")
		}
		return
	}
	if comment.UserID != user.ID {
		util.Error(c, http.StatusForbidden, "Not your comment")
		return
	}

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := util.ValidateCommentContent(req.Content); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.DB.Model(&comment).Update("content", strings.TrimSpace(req.Content)).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update comment")
		return
	}
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Delete handles DELETE /api/comments/:id, author only.
func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var comment models.Comment
	if err := h.DB.First(&comment, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "Comment not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Failed to delete comment")
		}
		return
	}
	if comment.UserID != user.ID {
		util.Error(c, http.StatusForbidden, "Not your comment")
		return
	}

	if err := h.DB.Delete(&comment).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}
