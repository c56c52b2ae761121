package domain

import "time"

// ActivityLog is the append-only audit trail of admin actions.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"adminId"`
	Action    string    `gorm:"size:255;not null" json:"action"`
	Details   *string   `gorm:"type:text" json:"details,omitempty"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
