package model

import "time"

// Profile holds the self-reported academic and professional details of a user.
type Profile struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"uniqueIndex;not null" json:"user_id,string"`
	Batch       string    `gorm:"size:16" json:"batch"`
	Branch      string    `gorm:"size:64" json:"branch"`
	Campus      string    `gorm:"size:128" json:"campus"`
	Company     string    `gorm:"size:128" json:"company"`
	Designation string    `gorm:"size:128" json:"designation"`
	Skills      []string  `gorm:"serializer:json" json:"skills"`
	LinkedIn    string    `gorm:"column:linkedin;size:256" json:"linkedin"`
	GitHub      string    `gorm:"column:github;size:256" json:"github"`
	Website     string    `gorm:"size:256" json:"website"`
	Bio         string    `gorm:"type:text" json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
