package services

import (
	"fmt"
	"sort"
	"strings"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

const planSystemPrompt = `You are a dining-hall meal planning assistant. You build one meal for one person from the dishes available today. You may ONLY pick dishes that appear on the provided menu, with their names copied exactly. Quantities are servings, as a number in a string (for example "1", "2", "0.5"). Balance the meal against the nutrition targets and respect every dietary restriction.`

const mealLogSystemPrompt = `You parse a person's free-text description of what they ate into dishes and serving counts. Prefer names from the provided dish list when the text clearly refers to one of them, otherwise keep the person's own wording. Never invent dishes that were not mentioned. A mention without an amount means one serving.`

const feedbackSystemPrompt = `You extract dish opinions from a person's free-form feedback. Rate each mentioned dish on the scale -2 (never again), -1 (disliked), 0 (neutral), 1 (liked), 2 (loved). Capture durable general preferences (for example "less spicy food") separately. If the text does not clearly express an opinion about any dish, set confident to false.`

func buildPlanPrompt(req PlanRequest) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Plan %s for %s.\n\n", req.MealType, req.Date.Format("Monday, January 2"))

	p := req.Profile
	fmt.Fprintf(&b, "Targets for this meal (one third of daily goals):\n")
	fmt.Fprintf(&b, "- calories: ~%.0f kcal\n- protein: ~%.0f g\n- carbohydrates: ~%.0f g\n- fat: ~%.0f g\n- fiber: ~%.0f g\n",
		p.TargetCalories/3, p.TargetProtein/3, p.TargetCarbs/3, p.TargetFat/3, p.TargetFiber/3)
	fmt.Fprintf(&b, "- sodium: at most ~%.0f mg\n- added sugars: at most ~%.0f g\n\n", p.MaxSodium/3, p.MaxAddedSugars/3)

	fmt.Fprintf(&b, "Dietary notes: %s\n\n", p.PreferencesText())

	if len(req.Preferred) > 0 {
		b.WriteString("Dishes this person has liked recently:\n")
		for _, s := range req.Preferred {
			fmt.Fprintf(&b, "- %s (score %+.1f)\n", s.Dish.Name, s.Score)
		}
		b.WriteString("\n")
	}
	if len(req.Avoided) > 0 {
		b.WriteString("Dishes to avoid unless nothing else fits:\n")
		for _, s := range req.Avoided {
			fmt.Fprintf(&b, "- %s (score %+.1f)\n", s.Dish.Name, s.Score)
		}
		b.WriteString("\n")
	}

	b.WriteString("Today's menu:\n")
	writeMenuByCategory(&b, req.Menu)

	if len(req.InvalidItems) > 0 {
		fmt.Fprintf(&b, "\nYour previous answer included items that are NOT on this menu: %s. ",
			strings.Join(req.InvalidItems, ", "))
		b.WriteString("Produce a corrected plan using only exact menu names listed above.")
	}

	return planSystemPrompt, b.String()
}

func writeMenuByCategory(b *strings.Builder, menu *types.DailyMenu) {
	byCategory := menu.DishesByCategory()
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(b, "%s:\n", category)
		for _, d := range byCategory[category] {
			if d.HasNutrition() {
				fmt.Fprintf(b, "- %s (%.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat per %s)\n",
					d.Name, d.Calories, d.Protein, d.TotalCarbohydrate, d.TotalFat, servingLabel(d))
			} else {
				fmt.Fprintf(b, "- %s\n", d.Name)
			}
		}
	}
}

func servingLabel(d *types.Dish) string {
	if d.ServingSize != "" {
		return d.ServingSize
	}
	return "serving"
}

func buildMealLogPrompt(req LogRequest) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Text: %q\n\n", req.Text)
	if req.MealTypeHint != "" {
		fmt.Fprintf(&b, "If the text does not name a meal, assume it was %s.\n\n", req.MealTypeHint)
	}
	if len(req.RecentDishes) > 0 {
		b.WriteString("Dishes served recently:\n")
		for _, name := range req.RecentDishes {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return mealLogSystemPrompt, b.String()
}

func buildFeedbackPrompt(req FeedbackRequest) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Feedback: %q\n\n", req.Text)
	if req.SubjectHint != "" {
		fmt.Fprintf(&b, "If the text does not name a dish, it is most likely about: %s.\n\n", req.SubjectHint)
	}
	if len(req.RecentDishes) > 0 {
		b.WriteString("Dishes this person has been served recently:\n")
		for _, name := range req.RecentDishes {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return feedbackSystemPrompt, b.String()
}

func planSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meals": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"quantity": map[string]any{"type": "string"},
					},
					"required":             []string{"name", "quantity"},
					"additionalProperties": false,
				},
			},
			"rationale": map[string]any{"type": "string"},
		},
		"required":             []string{"meals", "rationale"},
		"additionalProperties": false,
	}
}

func mealLogSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"meal_type": map[string]any{
				"type": "string",
				"enum": []string{types.MealBreakfast, types.MealLunch, types.MealDinner, "unknown"},
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"quantity": map[string]any{"type": "number"},
					},
					"required":             []string{"name", "quantity"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"meal_type", "items"},
		"additionalProperties": false,
	}
}

func feedbackSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dishes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":   map[string]any{"type": "string"},
						"rating": map[string]any{"type": "integer", "minimum": -2, "maximum": 2},
						"reason": map[string]any{"type": "string"},
					},
					"required":             []string{"name", "rating", "reason"},
					"additionalProperties": false,
				},
			},
			"general_preferences": map[string]any{"type": "string"},
			"confident":           map[string]any{"type": "boolean"},
		},
		"required":             []string{"dishes", "general_preferences", "confident"},
		"additionalProperties": false,
	}
}
