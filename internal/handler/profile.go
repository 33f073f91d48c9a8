package handler

import (
	"net/http"
	"strings"

	"github.com/TinyActive/Feature-Voting-Tool/internal/middleware"
	"github.com/TinyActive/Feature-Voting-Tool/internal/models"
	"github.com/TinyActive/Feature-Voting-Tool/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile handles PUT /api/me, display name only; email is the
// identity key and cannot be changed here.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			util.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, "Invalid request")
			return
		}

		name := strings.TrimSpace(req.Name)
		if len(name) > 64 {
			util.Error(c, http.StatusBadRequest, "Name too long, max 64 characters")
			return
		}

		if err := db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("name", name).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}

		util.JSON(c, http.StatusOK, gin.H{
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  name,
				"role":  user.Role,
			},
		})
	}
}
