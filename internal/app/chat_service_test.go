package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
)

type chatFixture struct {
	db          *gorm.DB
	chatRepo    *repository.ChatRepository
	messageRepo *repository.MessageRepository
	cache       *cacheMock
	svc         *ChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db := newTestDB(t)
	f := &chatFixture{
		db:          db,
		chatRepo:    repository.NewChatRepository(db),
		messageRepo: repository.NewMessageRepository(db),
		cache:       newCacheMock(),
	}
	f.svc = NewChatService(f.chatRepo, f.messageRepo, f.cache)
	return f
}

func (f *chatFixture) seedTurn(t *testing.T, chatID, question, answer string) {
	t.Helper()
	now := time.Now()
	err := f.messageRepo.AppendTurn(
		&model.Message{ChatID: chatID, Sender: model.SenderUser, Content: question, CreatedAt: now},
		&model.Message{ChatID: chatID, Sender: model.SenderAssistant, Content: answer, CreatedAt: now},
	)
	require.NoError(t, err)
}

func TestChatService_CreateChat(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1", Title: "  Trip planning  "})
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, "Trip planning", chat.Title)
	assert.Equal(t, "user-1", chat.UserID)

	chat, err = f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "New Chat", chat.Title)

	chat, err = f.svc.CreateChat(CreateChatInput{UserID: "user-1", SystemPrompt: " You are Myth. "})
	require.NoError(t, err)
	assert.Equal(t, "You are Myth.", chat.SystemPrompt)

	_, err = f.svc.CreateChat(CreateChatInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChatService_ListChats_MostRecentFirst(t *testing.T) {
	f := newChatFixture(t)

	older, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1", Title: "older"})
	require.NoError(t, err)
	newer, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1", Title: "newer"})
	require.NoError(t, err)
	_, err = f.svc.CreateChat(CreateChatInput{UserID: "user-2", Title: "other user"})
	require.NoError(t, err)

	// Appending a turn bumps the chat, moving it to the top.
	f.seedTurn(t, older.ID, "q", "a")

	chats, err := f.svc.ListChats("user-1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, older.ID, chats[0].ID)
	assert.Equal(t, newer.ID, chats[1].ID)
}

func TestChatService_GetChat_OwnershipScoped(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)

	got, err := f.svc.GetChat("user-1", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, got.ID)

	_, err = f.svc.GetChat("user-2", chat.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatService_RenameChat(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RenameChat("user-1", chat.ID, "  Renamed  "))
	got, err := f.svc.GetChat("user-1", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	assert.ErrorIs(t, f.svc.RenameChat("user-2", chat.ID, "hijack"), ErrChatNotFound)
	assert.ErrorIs(t, f.svc.RenameChat("user-1", chat.ID, "   "), ErrInvalidInput)
	assert.ErrorIs(t, f.svc.RenameChat("user-1", "missing", "x"), ErrChatNotFound)
}

func TestChatService_DeleteChat(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	f.seedTurn(t, chat.ID, "q", "a")

	assert.ErrorIs(t, f.svc.DeleteChat("user-2", chat.ID), ErrChatNotFound)

	require.NoError(t, f.svc.DeleteChat("user-1", chat.ID))
	_, err = f.svc.GetChat("user-1", chat.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)

	messages, err := f.messageRepo.ListByChatID(chat.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)

	assert.Equal(t, 1, f.cache.calls("DeleteHistory"))
}

func TestChatService_GetHistory_FromDatabase(t *testing.T) {
	f := newChatFixture(t)
	f.svc = NewChatService(f.chatRepo, f.messageRepo, nil)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	f.seedTurn(t, chat.ID, "first question", "first answer")
	f.seedTurn(t, chat.ID, "second question", "second answer")

	messages, err := f.svc.GetHistory("user-1", chat.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "first question", messages[0].Content)
	assert.Equal(t, "second answer", messages[3].Content)

	// A limit keeps the newest entries.
	messages, err = f.svc.GetHistory("user-1", chat.ID, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "second question", messages[0].Content)
	assert.Equal(t, "second answer", messages[1].Content)

	_, err = f.svc.GetHistory("user-2", chat.ID, 0)
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestChatService_GetHistory_CacheHit(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	f.seedTurn(t, chat.ID, "db question", "db answer")

	f.cache.GetHistoryFunc = func(ctx context.Context, chatID string) ([]model.Message, bool, error) {
		return []model.Message{{ChatID: chatID, Sender: model.SenderUser, Content: "cached"}}, true, nil
	}

	messages, err := f.svc.GetHistory("user-1", chat.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "cached", messages[0].Content)

	// An explicit limit asks for an exact window, which only the
	// database can answer.
	messages, err = f.svc.GetHistory("user-1", chat.ID, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "db answer", messages[0].Content)
}

func TestChatService_GetHistory_CacheMissFillsCache(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	f.seedTurn(t, chat.ID, "q", "a")

	var filled []model.Message
	f.cache.SetHistoryFunc = func(ctx context.Context, chatID string, messages []model.Message) error {
		filled = messages
		return nil
	}

	messages, err := f.svc.GetHistory("user-1", chat.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, 1, f.cache.calls("SetHistory"))
	assert.Len(t, filled, 2)

	// A limited read must not fill the cache with a truncated window,
	// and does not consult it either.
	_, err = f.svc.GetHistory("user-1", chat.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.calls("SetHistory"))
	assert.Equal(t, 1, f.cache.calls("GetHistory"))
}

func TestChatService_GetHistory_DirtySkipsCache(t *testing.T) {
	f := newChatFixture(t)

	chat, err := f.svc.CreateChat(CreateChatInput{UserID: "user-1"})
	require.NoError(t, err)
	f.seedTurn(t, chat.ID, "q", "a")

	f.cache.IsDirtyFunc = func(ctx context.Context, chatID string) (bool, error) {
		return true, nil
	}

	messages, err := f.svc.GetHistory("user-1", chat.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// While the dirty marker stands the cache is neither read nor
	// refilled.
	assert.Equal(t, 0, f.cache.calls("GetHistory"))
	assert.Equal(t, 0, f.cache.calls("SetHistory"))
}
