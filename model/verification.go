package model

import "time"

// ClaimDetails is what a user reports about themselves when asking to be
// verified as an alumnus.
type ClaimDetails struct {
	Name   string `gorm:"size:128" json:"name"`
	RollNo string `gorm:"size:32" json:"roll_no"`
	Batch  string `gorm:"size:16" json:"batch"`
	Branch string `gorm:"size:64" json:"branch"`
}

// VerificationQueueItem is an open verification claim. It is deleted once an
// admin resolves it, so the unique user index keeps one open claim per user.
type VerificationQueueItem struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint         `gorm:"uniqueIndex;not null" json:"user_id,string"`
	User      *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Details   ClaimDetails `gorm:"embedded;embeddedPrefix:details_" json:"details_provided"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (VerificationQueueItem) TableName() string {
	return "verification_queue"
}
