package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

func TestLogResolvesAndAppends(t *testing.T) {
	userID := uuid.New()
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	salad := dish("Side Salad", "Sides", 50, 2)
	dishes := &fakeDishRepo{recent: []*types.Dish{chicken, salad}}
	history := &fakeHistoryRepo{}
	noon := time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC)
	menus := newFakeMenuRepo(menuFor(DateOf(noon), types.MealLunch, chicken, salad))

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: "unknown",
		Items: []LogItemDraft{
			{Name: "Grilled Chicken", Quantity: 2},
			{Name: "side salad", Quantity: 0}, // no amount mentioned
		},
	}}

	svc := NewMealLogService(dishes, menus, history, ai, 0, 0, testLogger(t))

	result, err := svc.Log(context.Background(), userID, "2 servings of grilled chicken and a side salad", noon)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}

	if result.MealType != types.MealLunch {
		t.Fatalf("meal type = %q, want resolver fallback lunch", result.MealType)
	}
	if len(result.Logged) != 2 {
		t.Fatalf("logged = %v", result.Logged)
	}
	if result.Logged[0].Quantity != 2.0 || result.Logged[1].Quantity != 1.0 {
		t.Fatalf("quantities = %v, %v", result.Logged[0].Quantity, result.Logged[1].Quantity)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unresolved = %v", result.Unresolved)
	}

	if len(history.rows) != 2 {
		t.Fatalf("history rows = %d", len(history.rows))
	}
	for _, row := range history.rows {
		if row.MealPlanID != nil {
			t.Fatal("direct log must not reference a plan")
		}
		if row.DailyMenuID == nil {
			t.Fatal("history row missing menu anchor")
		}
	}

	wantCalories := 250.0*2 + 50.0
	if result.Totals.Calories != wantCalories {
		t.Fatalf("calories = %v, want %v", result.Totals.Calories, wantCalories)
	}
}

func TestLogExplicitMealTypeWins(t *testing.T) {
	userID := uuid.New()
	eggs := dish("Scrambled Eggs", "Breakfast", 180, 12)
	dishes := &fakeDishRepo{recent: []*types.Dish{eggs}}

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: types.MealBreakfast,
		Items:    []LogItemDraft{{Name: "Scrambled Eggs", Quantity: 1}},
	}}
	svc := NewMealLogService(dishes, newFakeMenuRepo(), &fakeHistoryRepo{}, ai, 0, 0, testLogger(t))

	// 23:00 resolves to tomorrow's breakfast, but "for breakfast" means today.
	lateNight := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	result, err := svc.Log(context.Background(), userID, "eggs for breakfast", lateNight)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if result.MealType != types.MealBreakfast {
		t.Fatalf("meal type = %q", result.MealType)
	}
	if !result.Date.Equal(DateOf(lateNight)) {
		t.Fatalf("date = %v, want same day %v", result.Date, DateOf(lateNight))
	}
}

func TestLogReportsUnmatchedWithoutFabricating(t *testing.T) {
	userID := uuid.New()
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	dishes := &fakeDishRepo{recent: []*types.Dish{chicken}}
	history := &fakeHistoryRepo{}

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: "unknown",
		Items: []LogItemDraft{
			{Name: "Grilled Chicken", Quantity: 1},
			{Name: "Mystery Casserole", Quantity: 1},
		},
	}}
	svc := NewMealLogService(dishes, newFakeMenuRepo(), history, ai, 0, 0, testLogger(t))

	result, err := svc.Log(context.Background(), userID, "chicken and some casserole", time.Now().UTC())
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(result.Logged) != 1 {
		t.Fatalf("logged = %v", result.Logged)
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0].Mentioned != "Mystery Casserole" {
		t.Fatalf("unresolved = %v", result.Unresolved)
	}
	if len(history.rows) != 1 {
		t.Fatalf("history rows = %d, the resolved item must still land", len(history.rows))
	}
}

func TestLogWithoutMenuLeavesAnchorEmpty(t *testing.T) {
	userID := uuid.New()
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	dishes := &fakeDishRepo{recent: []*types.Dish{chicken}}
	history := &fakeHistoryRepo{}
	menus := newFakeMenuRepo()

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: "unknown",
		Items:    []LogItemDraft{{Name: "Grilled Chicken", Quantity: 1}},
	}}
	svc := NewMealLogService(dishes, menus, history, ai, 0, 0, testLogger(t))

	if _, err := svc.Log(context.Background(), userID, "grilled chicken", time.Now().UTC()); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(history.rows) != 1 {
		t.Fatalf("history rows = %d", len(history.rows))
	}
	if history.rows[0].DailyMenuID != nil {
		t.Fatalf("menu anchor = %v, want nil when no menu exists", history.rows[0].DailyMenuID)
	}
}

func TestLogSuggestsFromCatalogWhenNoRecentMenus(t *testing.T) {
	userID := uuid.New()
	stew := dish("Beef Stew", "Entrees", 320, 22)
	dishes := &fakeDishRepo{searchHits: []*types.Dish{stew}}
	history := &fakeHistoryRepo{}

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: "unknown",
		Items:    []LogItemDraft{{Name: "some beef thing", Quantity: 1}},
	}}
	svc := NewMealLogService(dishes, newFakeMenuRepo(), history, ai, 0, 0, testLogger(t))

	result, err := svc.Log(context.Background(), userID, "some beef thing", time.Now().UTC())
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(result.Unresolved) != 1 {
		t.Fatalf("unresolved = %v", result.Unresolved)
	}
	if len(result.Unresolved[0].Nearest) != 1 || result.Unresolved[0].Nearest[0] != "Beef Stew" {
		t.Fatalf("nearest = %v, want catalog fallback suggestion", result.Unresolved[0].Nearest)
	}
	if dishes.lastSearch != "thing" {
		t.Fatalf("search fragment = %q, want the longest token", dishes.lastSearch)
	}
}

func TestLogFuzzyMatchesTypos(t *testing.T) {
	userID := uuid.New()
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	dishes := &fakeDishRepo{recent: []*types.Dish{chicken}}

	ai := &fakeAI{logDraft: &LogDraft{
		MealType: "unknown",
		Items:    []LogItemDraft{{Name: "griled chicken", Quantity: 1}},
	}}
	svc := NewMealLogService(dishes, newFakeMenuRepo(), &fakeHistoryRepo{}, ai, 0, 0, testLogger(t))

	result, err := svc.Log(context.Background(), userID, "griled chicken", time.Now().UTC())
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(result.Logged) != 1 || result.Logged[0].Dish != chicken {
		t.Fatalf("fuzzy resolution failed: %+v", result)
	}
}
