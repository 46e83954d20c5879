package repos

import (
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

// Migrate creates all engine tables plus the partial unique index that
// guarantees at most one pending plan per (user, daily menu) slot. The index
// is what makes concurrent plan generation for one slot converge on a single
// surviving pending plan.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Dish{},
		&types.DailyMenu{},
		&types.UserProfile{},
		&types.MealPlan{},
		&types.MealPlanItem{},
		&types.MealHistory{},
		&types.UserFeedback{},
	); err != nil {
		return err
	}
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_meal_plan_pending_slot
		 ON meal_plan (user_id, daily_menu_id) WHERE status = 'pending'`,
	).Error
}
