package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

func TestChatRepository_CreateAndGet(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	require.NoError(t, repo.Create(&model.Chat{ID: "c1", UserID: "u1", Title: "New Chat"}))

	chat, err := repo.GetByIDAndUserID("c1", "u1")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "New Chat", chat.Title)

	// Another user's lookup misses without error.
	chat, err = repo.GetByIDAndUserID("c1", "u2")
	assert.NoError(t, err)
	assert.Nil(t, chat)
}

func TestChatRepository_ListByUserID_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	require.NoError(t, repo.Create(&model.Chat{ID: "c1", UserID: "u1", Title: "first"}))
	require.NoError(t, repo.Create(&model.Chat{ID: "c2", UserID: "u1", Title: "second"}))
	require.NoError(t, repo.Create(&model.Chat{ID: "c3", UserID: "u2", Title: "other"}))

	chats, err := repo.ListByUserID("u1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "c2", chats[0].ID)
	assert.Equal(t, "c1", chats[1].ID)
}

func TestChatRepository_UpdateTitle(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	require.NoError(t, repo.Create(&model.Chat{ID: "c1", UserID: "u1", Title: "old"}))

	changed, err := repo.UpdateTitle("c1", "u1", "new")
	require.NoError(t, err)
	assert.True(t, changed)

	chat, err := repo.GetByIDAndUserID("c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", chat.Title)

	changed, err = repo.UpdateTitle("c1", "u2", "hijack")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestChatRepository_DeleteByIDAndUserID(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	require.NoError(t, repo.Create(&model.Chat{ID: "c1", UserID: "u1", Title: "x"}))

	deleted, err := repo.DeleteByIDAndUserID("c1", "u2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.DeleteByIDAndUserID("c1", "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	chat, err := repo.GetByIDAndUserID("c1", "u1")
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestChatRepository_CascadeHelpers(t *testing.T) {
	repo := NewChatRepository(newTestDB(t))

	require.NoError(t, repo.Create(&model.Chat{ID: "c1", UserID: "u1", Title: "a"}))
	require.NoError(t, repo.Create(&model.Chat{ID: "c2", UserID: "u1", Title: "b"}))
	require.NoError(t, repo.Create(&model.Chat{ID: "c3", UserID: "u2", Title: "c"}))

	ids, err := repo.ListIDsByUserID("u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c1", "c2"}, ids)

	require.NoError(t, repo.DeleteByUserID("u1"))

	chats, err := repo.ListByUserID("u1")
	require.NoError(t, err)
	assert.Empty(t, chats)

	// The other user's chat survives.
	chat, err := repo.GetByIDAndUserID("c3", "u2")
	require.NoError(t, err)
	assert.NotNil(t, chat)
}
