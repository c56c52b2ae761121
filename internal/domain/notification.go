package domain

import "time"

// Notification types.
const (
	NotifyFlaggedContent = "flagged_content"
	NotifyAdminAlert     = "admin_alert"
	NotifyAdminAction    = "admin_action"
	NotifyFlagResolved   = "flag_resolved"
	NotifyMessageDeleted = "message_deleted"
	NotifyWarning        = "warning"
	NotifyBan            = "ban"
	NotifySuspend        = "suspend"
	NotifyRoleChange     = "role_change"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsRead    bool      `gorm:"not null;default:false;index" json:"isRead"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
