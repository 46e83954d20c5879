package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type MealHistoryRepo interface {
	// Append inserts consumption rows. History is append-only; there is no
	// update or delete path.
	Append(dbc dbctx.Context, rows []*types.MealHistory) ([]*types.MealHistory, error)

	// ListByUserSince lists a user's rows eaten on or after since, newest
	// first, dishes preloaded.
	ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.MealHistory, error)
}

type mealHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MealHistoryRepo {
	return &mealHistoryRepo{db: db, log: baseLog.With("repo", "MealHistoryRepo")}
}

func (r *mealHistoryRepo) Append(dbc dbctx.Context, rows []*types.MealHistory) ([]*types.MealHistory, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.MealHistory{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *mealHistoryRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.MealHistory, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.MealHistory
	if err := t.WithContext(dbc.Ctx).
		Preload("Dish").
		Where("user_id = ? AND eaten_at >= ?", userID, since).
		Order("eaten_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
