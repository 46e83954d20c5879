package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Meal types served by the dining hall.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
)

func ValidMealType(mealType string) bool {
	switch mealType {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	}
	return false
}

// DailyMenu is the set of dishes offered for one (date, meal type) slot.
// Populated by the external menu fetcher; read-only to the planning engine.
type DailyMenu struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Date     time.Time `gorm:"type:date;not null;index;uniqueIndex:idx_daily_menu_slot,priority:1" json:"date"`
	MealType string    `gorm:"not null;column:meal_type;uniqueIndex:idx_daily_menu_slot,priority:2" json:"meal_type"`

	Dishes []*Dish `gorm:"many2many:daily_menu_dish;" json:"dishes,omitempty"`

	FetchedAt time.Time      `gorm:"column:fetched_at;not null;default:now()" json:"fetched_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DailyMenu) TableName() string { return "daily_menu" }

// DishesByCategory groups the menu's dishes, defaulting empty categories to "Other".
func (m *DailyMenu) DishesByCategory() map[string][]*Dish {
	out := map[string][]*Dish{}
	for _, d := range m.Dishes {
		category := d.Category
		if category == "" {
			category = "Other"
		}
		out[category] = append(out[category], d)
	}
	return out
}
