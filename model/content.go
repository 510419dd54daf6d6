package model

import "time"

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// CanTransitionTo reports whether a review may move from s to next. Approved
// and rejected are terminal.
func (s ReviewStatus) CanTransitionTo(next ReviewStatus) bool {
	return s == StatusPending && (next == StatusApproved || next == StatusRejected)
}

const (
	ColStatus          = "status"
	ColReviewedBy      = "reviewed_by"
	ColReviewedAt      = "reviewed_at"
	ColRejectionReason = "rejection_reason"
	ColIsActive        = "is_active"
	ColViews           = "views"
	ColDownloads       = "downloads"
)

// Review is the moderation state shared by all user-facing content.
type Review struct {
	Status          ReviewStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ReviewedBy      *uint        `json:"reviewed_by,string,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	RejectionReason string       `gorm:"type:text" json:"rejection_reason,omitempty"`
}

type Post struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint     `gorm:"index;not null" json:"user_id,string"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	Images    []string `gorm:"serializer:json" json:"images"`
	Review    `gorm:"embedded"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

type Event struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedBy   uint      `gorm:"index;not null" json:"created_by,string"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Location    string    `gorm:"size:256" json:"location"`
	StartsAt    time.Time `gorm:"not null" json:"starts_at"`
	Images      []string  `gorm:"serializer:json" json:"images"`
	Review      `gorm:"embedded"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

type Newsletter struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UploadedBy  uint   `gorm:"index;not null" json:"uploaded_by,string"`
	Title       string `gorm:"size:256;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	FilePath    string `gorm:"size:512;not null" json:"file_path"`
	FileSize    int64  `gorm:"not null" json:"file_size"`
	Views       int64  `gorm:"not null;default:0" json:"views"`
	Downloads   int64  `gorm:"not null;default:0" json:"downloads"`
	Review      `gorm:"embedded"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Newsletter) TableName() string {
	return "newsletters"
}
