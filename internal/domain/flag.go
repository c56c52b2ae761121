package domain

import "time"

// FlaggedContent is a user report against a message. It is written once by
// the reporter and closed once by a reviewing admin; rows are never deleted.
type FlaggedContent struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	MessageID  uint       `gorm:"not null;index" json:"messageId"`
	UserID     uint       `gorm:"not null;index" json:"userId"` // reporter
	Reason     string     `gorm:"size:255;not null" json:"reason"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
	Reviewed   bool       `gorm:"not null;default:false;index" json:"reviewed"`
	ReviewedBy *uint      `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	Action     string     `gorm:"size:16" json:"action,omitempty"`
}

func (FlaggedContent) TableName() string { return "flagged_content" }
