package models

import "time"

// AdminEmail is the admin allowlist. A user whose email is listed here is
// provisioned as (or elevated to) admin when they request a login.
type AdminEmail struct {
	Email   string    `gorm:"primaryKey;size:255"`
	AddedBy string    `gorm:"size:255"`
	AddedAt time.Time `gorm:"autoCreateTime"`
}
