package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type UserProfileRepo interface {
	Create(dbc dbctx.Context, rows []*types.UserProfile) ([]*types.UserProfile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserProfile, error)
	GetByChatID(dbc dbctx.Context, chatID int64) (*types.UserProfile, error)

	// ListForMeal lists profiles with notifications enabled for the meal.
	ListForMeal(dbc dbctx.Context, mealType string) ([]*types.UserProfile, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (r *userProfileRepo) Create(dbc dbctx.Context, rows []*types.UserProfile) ([]*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.UserProfile{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userProfileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.UserProfile
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userProfileRepo) GetByChatID(dbc dbctx.Context, chatID int64) (*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserProfile
	if err := t.WithContext(dbc.Ctx).
		Where("chat_id = ?", chatID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *userProfileRepo) ListForMeal(dbc dbctx.Context, mealType string) ([]*types.UserProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Where("notifications_enabled = ?", true)
	switch mealType {
	case types.MealBreakfast:
		q = q.Where("breakfast_notification = ?", true)
	case types.MealLunch:
		q = q.Where("lunch_notification = ?", true)
	case types.MealDinner:
		q = q.Where("dinner_notification = ?", true)
	}
	var out []*types.UserProfile
	if err := q.Order("username").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userProfileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserProfile{}).
		Where("id = ?", id).
		Updates(updates).Error
}
