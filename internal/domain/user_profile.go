package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default daily nutrition goals, applied when a profile is created without
// explicit targets.
const (
	DefaultTargetCalories = 2000.0
	DefaultTargetProtein  = 50.0
	DefaultTargetCarbs    = 250.0
	DefaultTargetFat      = 70.0
	DefaultTargetFiber    = 25.0
	DefaultMaxSodium      = 2300.0
	DefaultMaxAddedSugars = 50.0
)

// UserProfile holds a user's nutrition goals, free-text dietary restrictions
// and preferences, and per-meal notification flags.
type UserProfile struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChatID   *int64    `gorm:"uniqueIndex;column:chat_id" json:"chat_id,omitempty"`
	Username string    `gorm:"column:username" json:"username"`

	TargetCalories float64 `gorm:"not null;default:2000;column:target_calories" json:"target_calories"`
	TargetProtein  float64 `gorm:"not null;default:50;column:target_protein" json:"target_protein"`
	TargetCarbs    float64 `gorm:"not null;default:250;column:target_carbs" json:"target_carbs"`
	TargetFat      float64 `gorm:"not null;default:70;column:target_fat" json:"target_fat"`
	TargetFiber    float64 `gorm:"not null;default:25;column:target_fiber" json:"target_fiber"`
	MaxSodium      float64 `gorm:"not null;default:2300;column:max_sodium" json:"max_sodium"`
	MaxAddedSugars float64 `gorm:"not null;default:50;column:max_added_sugars" json:"max_added_sugars"`

	DietaryRestrictions string `gorm:"type:text;column:dietary_restrictions" json:"dietary_restrictions"`
	FoodPreferences     string `gorm:"type:text;column:food_preferences" json:"food_preferences"`

	NotificationsEnabled  bool `gorm:"not null;default:true;column:notifications_enabled" json:"notifications_enabled"`
	BreakfastNotification bool `gorm:"not null;default:true;column:breakfast_notification" json:"breakfast_notification"`
	LunchNotification     bool `gorm:"not null;default:true;column:lunch_notification" json:"lunch_notification"`
	DinnerNotification    bool `gorm:"not null;default:true;column:dinner_notification" json:"dinner_notification"`

	IsAdmin bool `gorm:"not null;default:false;column:is_admin" json:"is_admin"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserProfile) TableName() string { return "user_profile" }

// PreferencesText combines restrictions and preferences into one line for
// prompt building.
func (p *UserProfile) PreferencesText() string {
	var parts []string
	if strings.TrimSpace(p.DietaryRestrictions) != "" {
		parts = append(parts, fmt.Sprintf("Dietary restrictions: %s", p.DietaryRestrictions))
	}
	if strings.TrimSpace(p.FoodPreferences) != "" {
		parts = append(parts, fmt.Sprintf("Food preferences: %s", p.FoodPreferences))
	}
	if len(parts) == 0 {
		return "No specific preferences"
	}
	return strings.Join(parts, ". ")
}

// WantsMeal reports whether the profile opted into plans for the given meal.
func (p *UserProfile) WantsMeal(mealType string) bool {
	if !p.NotificationsEnabled {
		return false
	}
	switch mealType {
	case MealBreakfast:
		return p.BreakfastNotification
	case MealLunch:
		return p.LunchNotification
	case MealDinner:
		return p.DinnerNotification
	}
	return false
}
