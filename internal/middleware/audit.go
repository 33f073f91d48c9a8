package middleware

import (
	"encoding/json"

	"github.com/TinyActive/Feature-Voting-Tool/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Audit writes one audit row for a privileged mutation. Failures are ignored;
// auditing must never fail the operation it describes.
func Audit(db *gorm.DB, c *gin.Context, action, targetType, targetID string, metadata map[string]interface{}) {
	var userID string
	if user := CurrentUser(c); user != nil {
		userID = user.ID
	}

	meta := ""
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil && len(b) < 2000 {
			meta = string(b)
		}
	}

	_ = db.Create(&models.AuditLog{
		UserID:     userID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   meta,
		IP:         c.ClientIP(),
	}).Error
}
