package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

// NutritionTotals is the nutrition sum of a plan or a logged meal, scaled by
// serving quantities. Snapshotted onto meal_plan.totals at creation so later
// dish edits do not rewrite history.
type NutritionTotals struct {
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Fiber       float64 `json:"fiber"`
	Sodium      float64 `json:"sodium"`
	AddedSugars float64 `json:"added_sugars"`
}

func (t NutritionTotals) Add(d *types.Dish, quantity float64) NutritionTotals {
	t.Calories += d.Calories * quantity
	t.Protein += d.Protein * quantity
	t.Carbs += d.TotalCarbohydrate * quantity
	t.Fat += d.TotalFat * quantity
	t.Fiber += d.DietaryFiber * quantity
	t.Sodium += d.Sodium * quantity
	t.AddedSugars += d.AddedSugars * quantity
	return t
}

// ComputeTotals sums nutrition over plan items. Items whose dish carries no
// nutrition data contribute nothing.
func ComputeTotals(items []*types.MealPlanItem) NutritionTotals {
	var t NutritionTotals
	for _, it := range items {
		if it.Dish == nil || !it.Dish.HasNutrition() {
			continue
		}
		t = t.Add(it.Dish, it.Quantity)
	}
	return t
}

func (t NutritionTotals) JSON() (datatypes.JSON, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func TotalsFromJSON(raw datatypes.JSON) (NutritionTotals, error) {
	var t NutritionTotals
	if len(raw) == 0 {
		return t, nil
	}
	err := json.Unmarshal(raw, &t)
	return t, err
}

// PlanRecordItem is one line of a rendered plan.
type PlanRecordItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Calories float64 `json:"calories"`
}

// PlanRecord is the delivery-ready view of a plan, decoupled from the gorm
// model so transports can serialize it directly.
type PlanRecord struct {
	PlanID    uuid.UUID        `json:"plan_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Date      time.Time        `json:"date"`
	MealType  string           `json:"meal_type"`
	Status    string           `json:"status"`
	Items     []PlanRecordItem `json:"items"`
	Totals    NutritionTotals  `json:"totals"`
	Rationale string           `json:"rationale,omitempty"`
}

// BuildPlanRecord flattens a loaded plan (Items with Dish, DailyMenu preloaded)
// into its delivery form.
func BuildPlanRecord(plan *types.MealPlan) (*PlanRecord, error) {
	if plan == nil {
		return nil, fmt.Errorf("nil plan")
	}
	rec := &PlanRecord{
		PlanID:    plan.ID,
		UserID:    plan.UserID,
		Status:    plan.Status,
		Rationale: plan.Rationale,
	}
	if plan.DailyMenu != nil {
		rec.Date = plan.DailyMenu.Date
		rec.MealType = plan.DailyMenu.MealType
	}
	for _, it := range plan.Items {
		item := PlanRecordItem{Quantity: it.Quantity}
		if it.Dish != nil {
			item.Name = it.Dish.Name
			item.Calories = it.Dish.Calories * it.Quantity
		}
		rec.Items = append(rec.Items, item)
	}
	totals, err := TotalsFromJSON(plan.Totals)
	if err != nil {
		return nil, fmt.Errorf("plan %s totals: %w", plan.ID, err)
	}
	if totals == (NutritionTotals{}) {
		totals = ComputeTotals(plan.Items)
	}
	rec.Totals = totals
	return rec, nil
}

// FormatPlanText renders a record as the user-facing message body.
func FormatPlanText(rec *PlanRecord) string {
	var b strings.Builder
	title := rec.MealType
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	} else {
		title = "Meal"
	}
	fmt.Fprintf(&b, "%s for %s\n\n", title, rec.Date.Format("Monday, January 2"))
	for _, it := range rec.Items {
		fmt.Fprintf(&b, "• %s x%s", it.Name, trimFloat(it.Quantity))
		if it.Calories > 0 {
			fmt.Fprintf(&b, " (%.0f kcal)", it.Calories)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n",
		rec.Totals.Calories, rec.Totals.Protein, rec.Totals.Carbs, rec.Totals.Fat)
	if rec.Rationale != "" {
		fmt.Fprintf(&b, "\n%s\n", rec.Rationale)
	}
	return b.String()
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
