package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Username       string     `gorm:"uniqueIndex;size:80;not null" json:"username"`
	Email          string     `gorm:"uniqueIndex;size:120;not null" json:"email"`
	FirstName      string     `gorm:"size:80;not null" json:"firstName"`
	LastName       string     `gorm:"size:80;not null" json:"lastName"`
	PasswordHash   string     `gorm:"size:255;not null" json:"-"`
	Role           string     `gorm:"size:20;not null;default:user;index" json:"role"` // "user"/"admin"
	IsBanned       bool       `gorm:"not null;default:false;index" json:"isBanned"`
	SuspendedUntil *time.Time `json:"suspendedUntil,omitempty"`
	LastLogin      *time.Time `gorm:"index" json:"lastLogin,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// SuspendedAt reports whether the suspension is still running at t.
func (u *User) SuspendedAt(t time.Time) bool {
	return u.SuspendedUntil != nil && u.SuspendedUntil.After(t)
}
