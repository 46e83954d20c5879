package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Plan lifecycle states. A slot holds at most one pending plan; creating a new
// plan for the slot supersedes the prior pending one.
const (
	PlanStatusPending    = "pending"
	PlanStatusApproved   = "approved"
	PlanStatusCompleted  = "completed"
	PlanStatusSuperseded = "superseded"
	PlanStatusExpired    = "expired"
)

// PlanStatusTerminal reports whether no further transitions are allowed.
func PlanStatusTerminal(status string) bool {
	switch status {
	case PlanStatusCompleted, PlanStatusSuperseded, PlanStatusExpired:
		return true
	}
	return false
}

// MealPlan is a generated recommendation for one (user, date, meal type) slot.
type MealPlan struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *UserProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	DailyMenuID uuid.UUID    `gorm:"type:uuid;not null;index" json:"daily_menu_id"`
	DailyMenu   *DailyMenu   `gorm:"constraint:OnDelete:CASCADE;foreignKey:DailyMenuID;references:ID" json:"daily_menu,omitempty"`

	Items []*MealPlanItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:MealPlanID" json:"items,omitempty"`

	Rationale string         `gorm:"type:text;column:rationale" json:"rationale"`
	Status    string         `gorm:"not null;default:'pending';index;column:status" json:"status"`
	Totals    datatypes.JSON `gorm:"type:jsonb;column:totals" json:"totals,omitempty"`

	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	SentAt      *time.Time     `gorm:"column:sent_at" json:"sent_at,omitempty"`
	ApprovedAt  *time.Time     `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MealPlan) TableName() string { return "meal_plan" }

// MealPlanItem is one recommended dish with a serving multiplier.
type MealPlanItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MealPlanID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_plan_dish,priority:1" json:"meal_plan_id"`
	DishID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_plan_dish,priority:2" json:"dish_id"`
	Dish       *Dish     `gorm:"constraint:OnDelete:CASCADE;foreignKey:DishID;references:ID" json:"dish,omitempty"`
	Quantity   float64   `gorm:"not null;default:1;column:quantity" json:"quantity"`
	Position   int       `gorm:"not null;default:0;column:position" json:"position"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (MealPlanItem) TableName() string { return "meal_plan_item" }
