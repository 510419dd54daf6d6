package model

import "time"

// AdminActivity is an append-only record of a moderator action.
type AdminActivity struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID    uint           `gorm:"index;not null" json:"admin_id,string"`      // 0 for system actions such as ban expiry
	AdminEmail string         `gorm:"size:256;not null;index" json:"admin_email"` // snapshot of the email at action time
	Action     string         `gorm:"size:64;not null;index" json:"action"`       // ban_user, approve_verification...
	TargetType string         `gorm:"size:32;not null;index" json:"target_type"`
	TargetID   string         `gorm:"size:64;not null" json:"target_id"`
	Details    map[string]any `gorm:"serializer:json" json:"details,omitempty"`
	IP         string         `gorm:"size:45;not null;default:''" json:"ip"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AdminActivity) TableName() string {
	return "admin_activities"
}
