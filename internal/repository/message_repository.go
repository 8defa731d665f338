package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// AppendTurn persists one exchange atomically: the user message always,
// the assistant message only when one is given. Both rows commit or
// neither does. The chat row is touched in the same transaction so
// recency ordering follows the latest turn.
func (r *MessageRepository) AppendTurn(userMsg, assistantMsg *model.Message) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userMsg).Error; err != nil {
			return err
		}
		if assistantMsg != nil {
			if err := tx.Create(assistantMsg).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Chat{}).
			Where("id = ?", userMsg.ChatID).
			UpdateColumn("updated_at", time.Now()).Error
	})
	if err != nil {
		return fmt.Errorf("append turn failed: %w", err)
	}
	return nil
}

// ListByChatID returns the chat's messages in chronological order.
// A limit keeps the newest window; zero applies the default cap.
func (r *MessageRepository) ListByChatID(chatID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var messages []model.Message
	if err := r.db.Where("chat_id = ?", chatID).Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	reverseMessages(messages)
	return messages, nil
}

// ListRecentByChatID returns the newest messages in chronological
// order, for prompt building where only the tail of a long chat fits.
func (r *MessageRepository) ListRecentByChatID(chatID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var messages []model.Message
	if err := r.db.Where("chat_id = ?", chatID).Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	reverseMessages(messages)
	return messages, nil
}

func reverseMessages(messages []model.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

func (r *MessageRepository) DeleteByChatID(chatID string) error {
	if err := r.db.Where("chat_id = ?", chatID).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete chat messages failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) DeleteByChatIDs(chatIDs []string) error {
	if len(chatIDs) == 0 {
		return nil
	}
	if err := r.db.Where("chat_id IN ?", chatIDs).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete chat messages failed: %w", err)
	}
	return nil
}
