package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

func TestTurnRecordRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := NewTurnRecordRepository(db)

	record := &model.TurnRecord{
		ChatID:      "chat-1",
		UserID:      "user-1",
		Model:       "gemini-1.5-flash-latest",
		Outcome:     "completed",
		OutputChars: 42,
		DurationMS:  1200,
		OccurredAt:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(record))
	assert.NotZero(t, record.ID)

	var stored model.TurnRecord
	require.NoError(t, db.First(&stored, record.ID).Error)
	assert.Equal(t, "chat-1", stored.ChatID)
	assert.Equal(t, "completed", stored.Outcome)
	assert.Equal(t, 42, stored.OutputChars)
}
