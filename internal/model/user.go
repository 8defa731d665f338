package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                string    `gorm:"size:36;primaryKey" json:"id"`
	Username          string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	Role              string    `gorm:"size:16;not null;default:user" json:"role"`
	Plan              string    `gorm:"size:16;not null;default:free" json:"plan"`
	DailyMessageCount int       `gorm:"not null;default:0" json:"daily_messages"`
	LastResetDate     string    `gorm:"size:10;not null" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
