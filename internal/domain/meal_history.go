package domain

import (
	"time"

	"github.com/google/uuid"
)

// MealHistory records one dish a user actually ate. Rows are append-only.
// MealPlanID is set when the row came from completing a plan; direct logging
// leaves it nil.
type MealHistory struct {
	ID     uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *UserProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	DishID uuid.UUID    `gorm:"type:uuid;not null;index" json:"dish_id"`
	Dish   *Dish        `gorm:"constraint:OnDelete:CASCADE;foreignKey:DishID;references:ID" json:"dish,omitempty"`

	DailyMenuID *uuid.UUID `gorm:"type:uuid;index" json:"daily_menu_id,omitempty"`
	MealPlanID  *uuid.UUID `gorm:"type:uuid;index" json:"meal_plan_id,omitempty"`

	Quantity float64   `gorm:"not null;default:1;column:quantity" json:"quantity"`
	EatenAt  time.Time `gorm:"not null;index;column:eaten_at" json:"eaten_at"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (MealHistory) TableName() string { return "meal_history" }
