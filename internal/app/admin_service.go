package app

import (
	"context"
	"errors"

	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/repository"
)

var ErrSelfTarget = errors.New("cannot target own account")

type AdminService struct {
	userRepo     *repository.UserRepository
	chatRepo     *repository.ChatRepository
	messageRepo  *repository.MessageRepository
	settingRepo  *repository.SettingRepository
	plans        *plan.Registry
	historyCache HistoryCache
}

func NewAdminService(
	userRepo *repository.UserRepository,
	chatRepo *repository.ChatRepository,
	messageRepo *repository.MessageRepository,
	settingRepo *repository.SettingRepository,
	plans *plan.Registry,
	historyCache HistoryCache,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		settingRepo:  settingRepo,
		plans:        plans,
		historyCache: historyCache,
	}
}

func (s *AdminService) ListUsers() ([]model.User, error) {
	return s.userRepo.List()
}

func (s *AdminService) SetUserPlan(userID, planID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	if _, err := s.plans.Resolve(planID); err != nil {
		return err
	}
	changed, err := s.userRepo.UpdatePlan(userID, planID)
	if err != nil {
		return err
	}
	if !changed {
		user, err := s.userRepo.GetByID(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
	}
	return nil
}

// DeleteUser removes the account and everything under it. Admins
// cannot remove themselves, which keeps the last admin deletable only
// by another admin.
func (s *AdminService) DeleteUser(actorID, userID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	if actorID == userID {
		return ErrSelfTarget
	}

	chatIDs, err := s.chatRepo.ListIDsByUserID(userID)
	if err != nil {
		return err
	}
	if err := s.messageRepo.DeleteByChatIDs(chatIDs); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteByUserID(userID); err != nil {
		return err
	}
	deleted, err := s.userRepo.Delete(userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	if s.historyCache != nil {
		ctx := context.Background()
		for _, chatID := range chatIDs {
			_ = s.historyCache.DeleteHistory(ctx, chatID)
		}
	}
	return nil
}

func (s *AdminService) SetAnnouncement(text string) error {
	return s.settingRepo.Set(model.SettingAnnouncement, text)
}

func (s *AdminService) Announcement() (string, error) {
	return s.settingRepo.Get(model.SettingAnnouncement)
}
