package app

import (
	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/quota"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
)

// AccountService serves the signed-in user's own view: the status
// snapshot behind the landing page and the self-serve plan upgrade.
type AccountService struct {
	userRepo    *repository.UserRepository
	settingRepo *repository.SettingRepository
	plans       *plan.Registry
	ledger      *quota.Ledger
	upgradePlan string
}

type AccountStatus struct {
	User         *model.User
	MessageLimit int
	Models       []string
	Announcement string
}

func NewAccountService(
	userRepo *repository.UserRepository,
	settingRepo *repository.SettingRepository,
	plans *plan.Registry,
	ledger *quota.Ledger,
	upgradePlan string,
) *AccountService {
	if upgradePlan == "" {
		upgradePlan = "pro"
	}
	return &AccountService{
		userRepo:    userRepo,
		settingRepo: settingRepo,
		plans:       plans,
		ledger:      ledger,
		upgradePlan: upgradePlan,
	}
}

// Status reports the user's plan, remaining allowance and the site
// announcement. It applies the lazy daily reset first, so a counter
// left over from yesterday never reaches the client.
func (s *AccountService) Status(userID string) (*AccountStatus, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	reset, err := s.ledger.Refresh(user.ID)
	if err != nil {
		return nil, err
	}
	if reset {
		user.DailyMessageCount = 0
		user.LastResetDate = s.ledger.Today()
	}

	// A user on a plan that was removed from configuration still gets
	// a working account, downgraded to the free tier's limits.
	userPlan, err := s.plans.Resolve(user.Plan)
	if err != nil {
		userPlan, err = s.plans.Resolve("free")
		if err != nil {
			return nil, err
		}
	}

	announcement, err := s.settingRepo.Get(model.SettingAnnouncement)
	if err != nil {
		return nil, err
	}

	return &AccountStatus{
		User:         user,
		MessageLimit: userPlan.DailyLimit,
		Models:       userPlan.Models,
		Announcement: announcement,
	}, nil
}

// Upgrade moves the user onto the paid tier.
func (s *AccountService) Upgrade(userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.plans.Resolve(s.upgradePlan); err != nil {
		return nil, err
	}

	changed, err := s.userRepo.UpdatePlan(userID, s.upgradePlan)
	if err != nil {
		return nil, err
	}
	if !changed {
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		// Already on the target plan.
		return user, nil
	}
	return s.userRepo.GetByID(userID)
}
