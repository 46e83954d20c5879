package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dish is a catalog item with per-serving nutrition facts. Nutrition fields
// default to 0, never null; re-fetching a menu overwrites them (last value wins).
type Dish struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Category    string    `gorm:"column:category" json:"category"`
	PortionSize string    `gorm:"column:portion_size" json:"portion_size"`
	ServingSize string    `gorm:"column:serving_size" json:"serving_size"`
	DetailURL   string    `gorm:"column:detail_url" json:"detail_url"`

	Calories          float64 `gorm:"not null;default:0;column:calories" json:"calories"`
	TotalFat          float64 `gorm:"not null;default:0;column:total_fat" json:"total_fat"`
	SaturatedFat      float64 `gorm:"not null;default:0;column:saturated_fat" json:"saturated_fat"`
	TransFat          float64 `gorm:"not null;default:0;column:trans_fat" json:"trans_fat"`
	Cholesterol       float64 `gorm:"not null;default:0;column:cholesterol" json:"cholesterol"`
	Sodium            float64 `gorm:"not null;default:0;column:sodium" json:"sodium"`
	TotalCarbohydrate float64 `gorm:"not null;default:0;column:total_carbohydrate" json:"total_carbohydrate"`
	DietaryFiber      float64 `gorm:"not null;default:0;column:dietary_fiber" json:"dietary_fiber"`
	TotalSugars       float64 `gorm:"not null;default:0;column:total_sugars" json:"total_sugars"`
	AddedSugars       float64 `gorm:"not null;default:0;column:added_sugars" json:"added_sugars"`
	Protein           float64 `gorm:"not null;default:0;column:protein" json:"protein"`
	VitaminD          float64 `gorm:"not null;default:0;column:vitamin_d" json:"vitamin_d"`
	Calcium           float64 `gorm:"not null;default:0;column:calcium" json:"calcium"`
	Iron              float64 `gorm:"not null;default:0;column:iron" json:"iron"`
	Potassium         float64 `gorm:"not null;default:0;column:potassium" json:"potassium"`

	// Comma-separated ingredient list, as published on the dish detail page.
	Ingredients string `gorm:"column:ingredients" json:"ingredients"`

	FirstSeen time.Time      `gorm:"column:first_seen" json:"first_seen"`
	LastSeen  time.Time      `gorm:"column:last_seen" json:"last_seen"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Dish) TableName() string { return "dish" }

func (d *Dish) IngredientsList() []string {
	if strings.TrimSpace(d.Ingredients) == "" {
		return nil
	}
	parts := strings.Split(d.Ingredients, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasNutrition reports whether any nutrition data was captured for the dish.
func (d *Dish) HasNutrition() bool {
	return d.Calories > 0
}
