package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditHandler serves the admin action log.
type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

type auditEntryJSON struct {
	ID         uint   `json:"id"`
	UserID     string `json:"userId"`
	Action     string `json:"action"`
	TargetType string `json:"targetType"`
	TargetID   string `json:"targetId"`
	Metadata   string `json:"metadata,omitempty"`
	IP         string `json:"ip"`
	CreatedAt  int64  `json:"createdAt"`
}

// List handles GET /api/admin/audit with paging plus optional action, date
// range (start/end, YYYY-MM-DD) and keyword filters.
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	base := h.DB.Model(&models.AuditLog{})
	if action := c.Query("action"); action != "" {
		base = base.Where("action = ?", action)
	}
	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Invalid start date")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Invalid end date")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		base = base.Where("action LIKE ? OR target_id LIKE ? OR user_id LIKE ?", like, like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch audit log")
		return
	}

	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset(offset).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch audit log")
		return
	}

	items := make([]auditEntryJSON, 0, len(logs))
	for _, l := range logs {
		items = append(items, auditEntryJSON{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Metadata:   l.Metadata,
			IP:         l.IP,
			CreatedAt:  l.CreatedAt.UnixMilli(),
		})
	}

	util.JSON(c, http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
