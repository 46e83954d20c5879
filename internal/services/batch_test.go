package services

import (
	"context"
	"errors"
	"testing"
	"time"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

func TestGenerateForMealFansOut(t *testing.T) {
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	slot := MealSlot{Date: DateOf(time.Now()), MealType: types.MealDinner}
	menu := menuFor(slot.Date, slot.MealType, chicken)
	menus := newFakeMenuRepo(menu)

	wantsDinner := profile()
	noDinner := profile()
	noDinner.DinnerNotification = false
	muted := profile()
	muted.NotificationsEnabled = false
	profiles := newFakeProfileRepo(wantsDinner, noDinner, muted)

	plans := newFakePlanRepo()
	ai := &fakeAI{planResponses: []*PlanDraft{
		{Items: []PlanItemDraft{{Name: "Grilled Chicken", Quantity: "1"}}},
	}}
	planner := plannerUnderTest(t, menus, plans, profiles, ai)
	svc := NewBatchService(profiles, menus, plans, planner, 2, testLogger(t))

	result, err := svc.GenerateForMeal(context.Background(), slot)
	if err != nil {
		t.Fatalf("GenerateForMeal: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("generated = %d, want 1 (only the subscribed user)", result.Generated)
	}
	if result.Skipped != 0 || len(result.Failures) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(plans.plans) != 1 {
		t.Fatalf("persisted plans = %d", len(plans.plans))
	}
}

func TestGenerateForMealSkipsLivePlans(t *testing.T) {
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	slot := MealSlot{Date: DateOf(time.Now()), MealType: types.MealLunch}
	menu := menuFor(slot.Date, slot.MealType, chicken)
	menus := newFakeMenuRepo(menu)

	user := profile()
	profiles := newFakeProfileRepo(user)

	plans := newFakePlanRepo()
	plans.plans[chicken.ID] = &types.MealPlan{
		ID:          chicken.ID,
		UserID:      user.ID,
		DailyMenuID: menu.ID,
		Status:      types.PlanStatusApproved,
		CreatedAt:   time.Now().UTC(),
	}

	ai := &fakeAI{}
	planner := plannerUnderTest(t, menus, plans, profiles, ai)
	svc := NewBatchService(profiles, menus, plans, planner, 2, testLogger(t))

	result, err := svc.GenerateForMeal(context.Background(), slot)
	if err != nil {
		t.Fatalf("GenerateForMeal: %v", err)
	}
	if result.Skipped != 1 || result.Generated != 0 {
		t.Fatalf("result = %+v", result)
	}
	if ai.planCalls != 0 {
		t.Fatalf("model called for a user with a live plan")
	}
}

func TestGenerateForMealCollectsFailures(t *testing.T) {
	chicken := dish("Grilled Chicken", "Entrees", 250, 30)
	slot := MealSlot{Date: DateOf(time.Now()), MealType: types.MealBreakfast}
	menu := menuFor(slot.Date, slot.MealType, chicken)
	menus := newFakeMenuRepo(menu)

	user := profile()
	profiles := newFakeProfileRepo(user)
	plans := newFakePlanRepo()

	// Every draft names an off-menu dish, so generation fails for the user.
	ai := &fakeAI{planResponses: []*PlanDraft{
		{Items: []PlanItemDraft{{Name: "Lobster Thermidor", Quantity: "1"}}},
	}}
	planner := plannerUnderTest(t, menus, plans, profiles, ai)
	svc := NewBatchService(profiles, menus, plans, planner, 2, testLogger(t))

	result, err := svc.GenerateForMeal(context.Background(), slot)
	if err != nil {
		t.Fatalf("GenerateForMeal: %v", err)
	}
	if len(result.Failures) != 1 || result.Failures[0].UserID != user.ID {
		t.Fatalf("failures = %+v", result.Failures)
	}
	if result.Generated != 0 {
		t.Fatalf("generated = %d", result.Generated)
	}
}

func TestGenerateForMealNoMenu(t *testing.T) {
	slot := MealSlot{Date: DateOf(time.Now()), MealType: types.MealDinner}
	profiles := newFakeProfileRepo(profile())
	plans := newFakePlanRepo()
	planner := plannerUnderTest(t, newFakeMenuRepo(), plans, profiles, &fakeAI{})
	svc := NewBatchService(profiles, newFakeMenuRepo(), plans, planner, 2, testLogger(t))

	_, err := svc.GenerateForMeal(context.Background(), slot)
	if !errors.Is(err, ErrNoMenuAvailable) {
		t.Fatalf("err = %v, want ErrNoMenuAvailable", err)
	}
}
