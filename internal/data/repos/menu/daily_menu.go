package menu

import (
	"time"

	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// DailyMenuRepo is read-only: menu rows are owned by the external fetcher,
// the engine only consumes them.
type DailyMenuRepo interface {
	// GetBySlot loads the menu for one (date, meal_type) slot with dishes
	// preloaded. Returns (nil, nil) when no menu exists for the slot.
	GetBySlot(dbc dbctx.Context, date time.Time, mealType string) (*types.DailyMenu, error)
}

type dailyMenuRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyMenuRepo(db *gorm.DB, baseLog *logger.Logger) DailyMenuRepo {
	return &dailyMenuRepo{db: db, log: baseLog.With("repo", "DailyMenuRepo")}
}

func (r *dailyMenuRepo) GetBySlot(dbc dbctx.Context, date time.Time, mealType string) (*types.DailyMenu, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.DailyMenu
	if err := t.WithContext(dbc.Ctx).
		Preload("Dishes").
		Where("date = ? AND meal_type = ?", date, mealType).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
