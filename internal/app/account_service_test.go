package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/quota"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
)

func testPlans() *plan.Registry {
	return plan.NewRegistry(map[string]plan.Plan{
		"free": {DailyLimit: 15, Models: []string{"gemini-1.5-flash-latest"}},
		"pro":  {DailyLimit: 50, Models: []string{"gemini-1.5-flash-latest", "gemini-pro"}},
	})
}

func newAccountFixture(t *testing.T) (*AccountService, *repository.UserRepository, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	svc := NewAccountService(userRepo, settingRepo, testPlans(), quota.NewLedger(userRepo, nil), "pro")
	return svc, userRepo, db
}

func seedUser(t *testing.T, userRepo *repository.UserRepository, user *model.User) {
	t.Helper()
	if user.LastResetDate == "" {
		user.LastResetDate = time.Now().Format("2006-01-02")
	}
	require.NoError(t, userRepo.Create(user))
}

func TestAccountService_Status(t *testing.T) {
	svc, userRepo, db := newAccountFixture(t)

	seedUser(t, userRepo, &model.User{ID: "u1", Username: "alice", Plan: "pro", DailyMessageCount: 7})
	require.NoError(t, repository.NewSettingRepository(db).Set(model.SettingAnnouncement, "Welcome!"))

	status, err := svc.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", status.User.Username)
	assert.Equal(t, 7, status.User.DailyMessageCount)
	assert.Equal(t, 50, status.MessageLimit)
	assert.Equal(t, []string{"gemini-1.5-flash-latest", "gemini-pro"}, status.Models)
	assert.Equal(t, "Welcome!", status.Announcement)
}

func TestAccountService_Status_AppliesLazyReset(t *testing.T) {
	svc, userRepo, _ := newAccountFixture(t)

	seedUser(t, userRepo, &model.User{
		ID: "u1", Username: "alice", Plan: "free",
		DailyMessageCount: 12,
		LastResetDate:     "2001-01-01",
	})

	status, err := svc.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, status.User.DailyMessageCount)
	assert.Equal(t, time.Now().Format("2006-01-02"), status.User.LastResetDate)

	// The reset is persisted, not only reflected in the response.
	stored, err := userRepo.GetByID("u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.DailyMessageCount)
}

func TestAccountService_Status_RemovedPlanFallsBackToFree(t *testing.T) {
	svc, userRepo, _ := newAccountFixture(t)

	seedUser(t, userRepo, &model.User{ID: "u1", Username: "alice", Plan: "legacy-tier"})

	status, err := svc.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, 15, status.MessageLimit)
	assert.Equal(t, []string{"gemini-1.5-flash-latest"}, status.Models)
}

func TestAccountService_Status_UnknownUser(t *testing.T) {
	svc, _, _ := newAccountFixture(t)

	_, err := svc.Status("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Status("")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAccountService_Upgrade(t *testing.T) {
	svc, userRepo, _ := newAccountFixture(t)

	seedUser(t, userRepo, &model.User{ID: "u1", Username: "alice", Plan: "free"})

	user, err := svc.Upgrade("u1")
	require.NoError(t, err)
	assert.Equal(t, "pro", user.Plan)

	// Upgrading again is a no-op, not an error.
	user, err = svc.Upgrade("u1")
	require.NoError(t, err)
	assert.Equal(t, "pro", user.Plan)

	_, err = svc.Upgrade("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
