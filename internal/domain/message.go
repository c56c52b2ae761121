package domain

import "time"

type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index" json:"senderId"`
	ReceiverID *uint     `gorm:"index" json:"receiverId,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	Deleted    bool      `gorm:"not null;default:false;index" json:"-"`
}

func (Message) TableName() string { return "messages" }
