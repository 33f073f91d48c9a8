package models

import "time"

// Roles form a total order: user < moderator < admin.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

const (
	StatusActive = "active"
	StatusBanned = "banned"
)

var roleRank = map[string]int{
	RoleUser:      1,
	RoleModerator: 2,
	RoleAdmin:     3,
}

// RoleRank returns the rank of a role, 0 for unknown roles.
func RoleRank(role string) int {
	return roleRank[role]
}

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return roleRank[role] != 0
}

// User represents an application user. Users are auto-provisioned on the
// first login request for an email address and never hard-deleted.
type User struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Email       string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Name        string     `gorm:"size:64" json:"name"`
	Role        string     `gorm:"size:16;index;not null;default:user" json:"role"`
	Status      string     `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}
