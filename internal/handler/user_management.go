package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler covers the admin user directory, role changes, bans, and the
// admin email allowlist.
type UserHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewUserHandler(db *gorm.DB, pageSize int) *UserHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &UserHandler{DB: db, PageSize: pageSize}
}

type userJSON struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
	LastLoginAt *int64 `json:"lastLoginAt"`
}

func toUserJSON(u models.User) userJSON {
	out := userJSON{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt.UnixMilli(),
	}
	if u.LastLoginAt != nil {
		ms := u.LastLoginAt.UnixMilli()
		out.LastLoginAt = &ms
	}
	return out
}

// List handles GET /api/admin/users with optional role, status, and search
// filters.
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	query := h.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	var users []models.User
	if err := query.Order("created_at DESC").
		Limit(h.PageSize).Offset((page - 1) * h.PageSize).
		Find(&users).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, toUserJSON(u))
	}
	util.JSON(c, http.StatusOK, gin.H{
		"users": out,
		"pagination": gin.H{
			"page":    page,
			"perPage": h.PageSize,
			"total":   total,
		},
	})
}

// SetRole handles POST /api/admin/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	userID := c.Param("id")

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidRole(req.Role) {
		util.Error(c, http.StatusBadRequest, "Invalid role")
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil && actor.ID == userID {
		util.Error(c, http.StatusBadRequest, "Cannot change your own role")
		return
	}

	res := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", req.Role)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update role")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "User not found")
		return
	}

	middleware.Audit(h.DB, c, "user_role", "user", userID, map[string]interface{}{"role": req.Role})
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Ban handles POST /api/admin/users/:id/ban. Banning revokes the user's
// sessions so live tokens stop working immediately.
func (h *UserHandler) Ban(c *gin.Context) {
	userID := c.Param("id")

	actor := middleware.CurrentUser(c)
	if actor != nil && actor.ID == userID {
		util.Error(c, http.StatusBadRequest, "Cannot ban yourself")
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).Update("status", models.StatusBanned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&models.Session{}, "user_id = ?", userID).Error
	})
	if err == gorm.ErrRecordNotFound {
		util.Error(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to ban user")
		return
	}

	middleware.Audit(h.DB, c, "user_ban", "user", userID, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// Unban handles POST /api/admin/users/:id/unban
func (h *UserHandler) Unban(c *gin.Context) {
	userID := c.Param("id")

	res := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("status", models.StatusActive)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to unban user")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "User not found")
		return
	}

	middleware.Audit(h.DB, c, "user_unban", "user", userID, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// ListAdminEmails handles GET /api/admin/admin-emails
func (h *UserHandler) ListAdminEmails(c *gin.Context) {
	var entries []models.AdminEmail
	if err := h.DB.Order("added_at ASC").Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to fetch admin emails")
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"email":   e.Email,
			"addedBy": e.AddedBy,
			"addedAt": e.AddedAt.UnixMilli(),
		})
	}
	util.JSON(c, http.StatusOK, gin.H{"adminEmails": out})
}

// AddAdminEmail handles POST /api/admin/admin-emails. The address gains the
// admin role at its next login.
func (h *UserHandler) AddAdminEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request")
		return
	}
	email := util.NormalizeEmail(req.Email)
	if err := util.ValidateEmail(email); err != nil {
		util.Error(c, http.StatusBadRequest, "Valid email required")
		return
	}

	var count int64
	h.DB.Model(&models.AdminEmail{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		util.Error(c, http.StatusBadRequest, "Email already in allowlist")
		return
	}

	entry := models.AdminEmail{Email: email}
	if actor := middleware.CurrentUser(c); actor != nil {
		entry.AddedBy = actor.Email
	}
	if err := h.DB.Create(&entry).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to add admin email")
		return
	}

	middleware.Audit(h.DB, c, "admin_email_add", "admin_email", email, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}

// RemoveAdminEmail handles DELETE /api/admin/admin-emails/:email. Removing
// the last allowlist entry is blocked so the instance cannot lock itself out.
func (h *UserHandler) RemoveAdminEmail(c *gin.Context) {
	email := util.NormalizeEmail(c.Param("email"))

	var total int64
	if err := h.DB.Model(&models.AdminEmail{}).Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to remove admin email")
		return
	}
	if total <= 1 {
		util.Error(c, http.StatusBadRequest, "Cannot remove the last admin email")
		return
	}

	res := h.DB.Delete(&models.AdminEmail{}, "email = ?", email)
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to remove admin email")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Email not in allowlist")
		return
	}

	middleware.Audit(h.DB, c, "admin_email_remove", "admin_email", email, nil)
	util.JSON(c, http.StatusOK, gin.H{"success": true})
}
