package model

import "time"

type BanDuration string

const (
	BanDuration24h       BanDuration = "24h"
	BanDuration7d        BanDuration = "7d"
	BanDuration30d       BanDuration = "30d"
	BanDuration365d      BanDuration = "365d"
	BanDurationPermanent BanDuration = "permanent"
)

var banOffsets = map[BanDuration]time.Duration{
	BanDuration24h:       24 * time.Hour,
	BanDuration7d:        7 * 24 * time.Hour,
	BanDuration30d:       30 * 24 * time.Hour,
	BanDuration365d:      365 * 24 * time.Hour,
	BanDurationPermanent: 0,
}

func (d BanDuration) Valid() bool {
	_, ok := banOffsets[d]
	return ok
}

// ExpiresAt returns the end of a ban starting at from, or nil for permanent bans.
func (d BanDuration) ExpiresAt(from time.Time) *time.Time {
	offset, ok := banOffsets[d]
	if !ok || offset == 0 {
		return nil
	}
	expiresAt := from.Add(offset)
	return &expiresAt
}

const (
	ColBanIsActive   = "is_active"
	ColBanUnbannedAt = "unbanned_at"
	ColBanUnbannedBy = "unbanned_by"
	ColBanUnbanNotes = "unban_notes"
)

// Ban is a ban ledger entry. Rows are never deleted; unbanning only closes them.
type Ban struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint        `gorm:"index;not null" json:"user_id,string"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reason       string      `gorm:"type:text;not null" json:"reason"`
	Duration     BanDuration `gorm:"size:16;not null" json:"duration"`
	BanExpiresAt *time.Time  `gorm:"index" json:"ban_expires_at"`
	IsActive     bool        `gorm:"not null;default:true;index" json:"is_active"`
	BannedBy     uint        `gorm:"not null" json:"banned_by,string"`
	UnbannedAt   *time.Time  `json:"unbanned_at,omitempty"`
	UnbannedBy   *uint       `json:"unbanned_by,string,omitempty"`
	UnbanNotes   string      `gorm:"type:text" json:"unban_notes,omitempty"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Ban) TableName() string {
	return "bans"
}
