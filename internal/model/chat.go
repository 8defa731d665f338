package model

import "time"

type Chat struct {
	ID           string    `gorm:"size:36;primaryKey" json:"id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	Title        string    `gorm:"size:128;not null" json:"title"`
	SystemPrompt string    `gorm:"type:text" json:"system_prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
