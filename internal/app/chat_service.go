package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrMessageEmpty = errors.New("message content is empty")
)

// HistoryCache is the read-through cache in front of the messages
// table. Dirty markers fence a window after each write during which
// readers must go to the database.
type HistoryCache interface {
	GetHistory(ctx context.Context, chatID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, chatID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, chatID string) error
	MarkDirty(ctx context.Context, chatID string) error
	IsDirty(ctx context.Context, chatID string) (bool, error)
}

type ChatService struct {
	chatRepo     *repository.ChatRepository
	messageRepo  *repository.MessageRepository
	historyCache HistoryCache
}

type CreateChatInput struct {
	UserID       string
	Title        string
	SystemPrompt string
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	messageRepo *repository.MessageRepository,
	historyCache HistoryCache,
) *ChatService {
	return &ChatService{
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
	}
}

func (s *ChatService) CreateChat(input CreateChatInput) (*model.Chat, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Chat"
	}

	chat := &model.Chat{
		ID:           uuid.NewString(),
		UserID:       input.UserID,
		Title:        title,
		SystemPrompt: strings.TrimSpace(input.SystemPrompt),
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) ListChats(userID string) ([]model.Chat, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.chatRepo.ListByUserID(userID)
}

func (s *ChatService) GetChat(userID, chatID string) (*model.Chat, error) {
	if userID == "" || chatID == "" {
		return nil, ErrInvalidInput
	}
	chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	return chat, nil
}

func (s *ChatService) RenameChat(userID, chatID, title string) error {
	title = strings.TrimSpace(title)
	if userID == "" || chatID == "" || title == "" {
		return ErrInvalidInput
	}
	changed, err := s.chatRepo.UpdateTitle(chatID, userID, title)
	if err != nil {
		return err
	}
	if !changed {
		return ErrChatNotFound
	}
	return nil
}

func (s *ChatService) DeleteChat(userID, chatID string) error {
	if userID == "" || chatID == "" {
		return ErrInvalidInput
	}
	chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if err := s.messageRepo.DeleteByChatID(chatID); err != nil {
		return err
	}
	if _, err := s.chatRepo.DeleteByIDAndUserID(chatID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(context.Background(), chatID)
	}
	return nil
}

func (s *ChatService) GetHistory(userID, chatID string, limit int) ([]model.Message, error) {
	if userID == "" || chatID == "" {
		return nil, ErrInvalidInput
	}

	chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	// The cache holds the default window only. Requests with an
	// explicit limit read the database so the window is exact.
	ctx := context.Background()
	useCache := s.historyCache != nil && limit <= 0
	if useCache {
		dirty, err := s.historyCache.IsDirty(ctx, chatID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, chatID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListByChatID(chatID, limit)
	if err != nil {
		return nil, err
	}
	if useCache {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, chatID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, chatID, messages)
		}
	}
	return messages, nil
}
