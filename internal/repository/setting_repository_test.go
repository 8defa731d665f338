package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

func TestSettingRepository_GetSetHas(t *testing.T) {
	repo := NewSettingRepository(newTestDB(t))

	value, err := repo.Get(model.SettingAnnouncement)
	require.NoError(t, err)
	assert.Empty(t, value)

	has, err := repo.Has(model.SettingAnnouncement)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Set(model.SettingAnnouncement, "Welcome!"))

	value, err = repo.Get(model.SettingAnnouncement)
	require.NoError(t, err)
	assert.Equal(t, "Welcome!", value)

	// Setting again overwrites in place.
	require.NoError(t, repo.Set(model.SettingAnnouncement, "Updated."))
	value, err = repo.Get(model.SettingAnnouncement)
	require.NoError(t, err)
	assert.Equal(t, "Updated.", value)

	// An empty value is still a present key.
	require.NoError(t, repo.Set(model.SettingAnnouncement, ""))
	has, err = repo.Has(model.SettingAnnouncement)
	require.NoError(t, err)
	assert.True(t, has)
}
