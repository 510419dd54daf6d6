package model

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAlumni, RoleAdmin:
		return true
	}
	return false
}

const (
	ColUserPassword         = "password"
	ColUserEmailVerified    = "email_verified"
	ColUserProfileCompleted = "profile_completed"
	ColUserVerifiedAlumni   = "verified_alumni"
	ColUserBanned           = "banned"
	ColUserBanExpiresAt     = "ban_expires_at"
	ColUserBanReason        = "ban_reason"
)

// User stores account, role and moderation state
type User struct {
	ID               uint       `gorm:"primarykey" json:"id,string"`
	Name             string     `gorm:"size:128;not null" json:"name"`
	Email            string     `gorm:"uniqueIndex;size:256;not null" json:"email"`
	Password         string     `gorm:"size:64;not null" json:"-"`
	Role             Role       `gorm:"size:16;not null;index;default:student" json:"role"`
	EmailVerified    bool       `gorm:"default:false;not null" json:"email_verified"`
	ProfileCompleted bool       `gorm:"default:false;not null" json:"profileCompleted"`
	VerifiedAlumni   bool       `gorm:"default:false;not null;index" json:"verified_alumni"`
	Banned           bool       `gorm:"default:false;not null;index" json:"banned"`
	BanExpiresAt     *time.Time `json:"ban_expires_at"`
	BanReason        string     `gorm:"size:512;not null;default:''" json:"ban_reason,omitempty"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == 0 {
		u.ID = GenerateID()
	}
	return nil
}

// BanLapsed reports whether the user carries a timed ban whose window has passed.
func (u *User) BanLapsed(now time.Time) bool {
	return u.Banned && u.BanExpiresAt != nil && !u.BanExpiresAt.After(now)
}
