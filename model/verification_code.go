package model

import "time"

type CodeStatus string

const (
	CodeStatusAll     CodeStatus = "all"
	CodeStatusActive  CodeStatus = "active"
	CodeStatusUsed    CodeStatus = "used"
	CodeStatusExpired CodeStatus = "expired"
)

func (s CodeStatus) Valid() bool {
	switch s {
	case CodeStatusAll, CodeStatusActive, CodeStatusUsed, CodeStatusExpired:
		return true
	}
	return false
}

const (
	ColCodeIsUsed = "is_used"
	ColCodeUsedBy = "used_by"
	ColCodeUsedAt = "used_at"
)

// VerificationCode is an out-of-band alumni verification code issued by an admin.
type VerificationCode struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string     `gorm:"uniqueIndex;size:16;not null" json:"code"`
	GeneratedBy uint       `gorm:"not null;index:idx_code_generated,priority:1" json:"generated_by,string"`
	UsedBy      *uint      `json:"used_by,string"`
	IsUsed      bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_code_generated,priority:2" json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

// Status classifies the code into exactly one of active, used or expired.
func (c *VerificationCode) Status(now time.Time) CodeStatus {
	if c.IsUsed {
		return CodeStatusUsed
	}
	if c.ExpiresAt.After(now) {
		return CodeStatusActive
	}
	return CodeStatusExpired
}
