package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) List() ([]model.User, error) {
	var users []model.User
	if err := r.db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

// UpdatePlan reports whether a row changed, so callers can tell a
// missing user from a no-op.
func (r *UserRepository) UpdatePlan(id, plan string) (bool, error) {
	res := r.db.Model(&model.User{}).Where("id = ?", id).Update("plan", plan)
	if res.Error != nil {
		return false, fmt.Errorf("update user plan failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) Delete(id string) (bool, error) {
	res := r.db.Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return false, fmt.Errorf("delete user failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ResetDailyCount zeroes the counter and stamps date in one conditional
// UPDATE. The WHERE clause makes concurrent resets idempotent: only the
// first writer for a new date changes the row.
func (r *UserRepository) ResetDailyCount(id, date string) (bool, error) {
	res := r.db.Model(&model.User{}).
		Where("id = ? AND last_reset_date <> ?", id, date).
		Updates(map[string]interface{}{
			"daily_message_count": 0,
			"last_reset_date":     date,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reset daily count failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IncrementDailyCount adds one to the counter while it is below limit
// and the stored date still matches. The guard runs inside the UPDATE,
// so two racing turns can never both pass a limit of one remaining
// message.
func (r *UserRepository) IncrementDailyCount(id, date string, limit int) (bool, error) {
	res := r.db.Model(&model.User{}).
		Where("id = ? AND last_reset_date = ? AND daily_message_count < ?", id, date, limit).
		Update("daily_message_count", gorm.Expr("daily_message_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment daily count failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
