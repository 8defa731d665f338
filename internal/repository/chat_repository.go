package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(chat *model.Chat) error {
	if err := r.db.Create(chat).Error; err != nil {
		return fmt.Errorf("create chat failed: %w", err)
	}
	return nil
}

func (r *ChatRepository) ListByUserID(userID string) ([]model.Chat, error) {
	var chats []model.Chat
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("list chats failed: %w", err)
	}
	return chats, nil
}

// GetByIDAndUserID scopes the lookup to the owner, so one user can
// never address another user's chat. A miss returns nil without error.
func (r *ChatRepository) GetByIDAndUserID(chatID, userID string) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.Where("id = ? AND user_id = ?", chatID, userID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat failed: %w", err)
	}
	return &chat, nil
}

func (r *ChatRepository) UpdateTitle(chatID, userID, title string) (bool, error) {
	res := r.db.Model(&model.Chat{}).
		Where("id = ? AND user_id = ?", chatID, userID).
		Update("title", title)
	if res.Error != nil {
		return false, fmt.Errorf("rename chat failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepository) DeleteByIDAndUserID(chatID, userID string) (bool, error) {
	res := r.db.Where("id = ? AND user_id = ?", chatID, userID).Delete(&model.Chat{})
	if res.Error != nil {
		return false, fmt.Errorf("delete chat failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListIDsByUserID feeds the cascade when an account is removed.
func (r *ChatRepository) ListIDsByUserID(userID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.Chat{}).Where("user_id = ?", userID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list chat ids failed: %w", err)
	}
	return ids, nil
}

func (r *ChatRepository) DeleteByUserID(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&model.Chat{}).Error; err != nil {
		return fmt.Errorf("delete user chats failed: %w", err)
	}
	return nil
}
