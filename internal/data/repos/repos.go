package repos

import (
	"gorm.io/gorm"

	"github.com/mealwise/mealwise-backend/internal/data/repos/history"
	"github.com/mealwise/mealwise-backend/internal/data/repos/menu"
	"github.com/mealwise/mealwise-backend/internal/data/repos/plans"
	"github.com/mealwise/mealwise-backend/internal/data/repos/user"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type DishRepo = menu.DishRepo
type DailyMenuRepo = menu.DailyMenuRepo
type UserProfileRepo = user.UserProfileRepo
type MealPlanRepo = plans.MealPlanRepo
type MealHistoryRepo = history.MealHistoryRepo
type UserFeedbackRepo = history.UserFeedbackRepo

func NewDishRepo(db *gorm.DB, baseLog *logger.Logger) DishRepo {
	return menu.NewDishRepo(db, baseLog)
}
func NewDailyMenuRepo(db *gorm.DB, baseLog *logger.Logger) DailyMenuRepo {
	return menu.NewDailyMenuRepo(db, baseLog)
}
func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return user.NewUserProfileRepo(db, baseLog)
}
func NewMealPlanRepo(db *gorm.DB, baseLog *logger.Logger) MealPlanRepo {
	return plans.NewMealPlanRepo(db, baseLog)
}
func NewMealHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MealHistoryRepo {
	return history.NewMealHistoryRepo(db, baseLog)
}
func NewUserFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) UserFeedbackRepo {
	return history.NewUserFeedbackRepo(db, baseLog)
}
