package model

import "time"

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one persisted chat entry. Partial marks assistant output
// that was cut short by cancellation or a provider failure, so clients
// can tell a truncated answer from a complete one.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    string    `gorm:"size:36;not null;index" json:"chat_id"`
	Sender    string    `gorm:"size:16;not null" json:"sender"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Partial   bool      `gorm:"not null;default:false" json:"partial"`
	CreatedAt time.Time `json:"created_at"`
}
