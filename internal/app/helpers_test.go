package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.Message{},
		&model.Setting{},
		&model.TurnRecord{},
	))
	return db
}

// cacheMock counts calls per method; behavior is overridden through the
// func fields.
type cacheMock struct {
	mu     sync.Mutex
	counts map[string]int

	GetHistoryFunc    func(ctx context.Context, chatID string) ([]model.Message, bool, error)
	SetHistoryFunc    func(ctx context.Context, chatID string, messages []model.Message) error
	DeleteHistoryFunc func(ctx context.Context, chatID string) error
	MarkDirtyFunc     func(ctx context.Context, chatID string) error
	IsDirtyFunc       func(ctx context.Context, chatID string) (bool, error)
}

func newCacheMock() *cacheMock {
	return &cacheMock{counts: make(map[string]int)}
}

func (m *cacheMock) record(name string) {
	m.mu.Lock()
	m.counts[name]++
	m.mu.Unlock()
}

func (m *cacheMock) calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *cacheMock) GetHistory(ctx context.Context, chatID string) ([]model.Message, bool, error) {
	m.record("GetHistory")
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, chatID)
	}
	return nil, false, nil
}

func (m *cacheMock) SetHistory(ctx context.Context, chatID string, messages []model.Message) error {
	m.record("SetHistory")
	if m.SetHistoryFunc != nil {
		return m.SetHistoryFunc(ctx, chatID, messages)
	}
	return nil
}

func (m *cacheMock) DeleteHistory(ctx context.Context, chatID string) error {
	m.record("DeleteHistory")
	if m.DeleteHistoryFunc != nil {
		return m.DeleteHistoryFunc(ctx, chatID)
	}
	return nil
}

func (m *cacheMock) MarkDirty(ctx context.Context, chatID string) error {
	m.record("MarkDirty")
	if m.MarkDirtyFunc != nil {
		return m.MarkDirtyFunc(ctx, chatID)
	}
	return nil
}

func (m *cacheMock) IsDirty(ctx context.Context, chatID string) (bool, error) {
	m.record("IsDirty")
	if m.IsDirtyFunc != nil {
		return m.IsDirtyFunc(ctx, chatID)
	}
	return false, nil
}
