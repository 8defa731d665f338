package model

import "time"

// TurnRecord is the durable audit row for one finished generation turn,
// written asynchronously by the journal worker.
type TurnRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChatID      string    `gorm:"size:36;not null;index" json:"chat_id"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	Model       string    `gorm:"size:64;not null" json:"model"`
	Outcome     string    `gorm:"size:16;not null" json:"outcome"`
	OutputChars int       `gorm:"not null" json:"output_chars"`
	DurationMS  int64     `gorm:"not null" json:"duration_ms"`
	OccurredAt  time.Time `gorm:"not null" json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}
