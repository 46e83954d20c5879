package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.UserProfile {
	tb.Helper()
	p := &types.UserProfile{
		ID:                    uuid.New(),
		Username:              username,
		TargetCalories:        types.DefaultTargetCalories,
		TargetProtein:         types.DefaultTargetProtein,
		TargetCarbs:           types.DefaultTargetCarbs,
		TargetFat:             types.DefaultTargetFat,
		TargetFiber:           types.DefaultTargetFiber,
		MaxSodium:             types.DefaultMaxSodium,
		MaxAddedSugars:        types.DefaultMaxAddedSugars,
		NotificationsEnabled:  true,
		BreakfastNotification: true,
		LunchNotification:     true,
		DinnerNotification:    true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedDish(tb testing.TB, ctx context.Context, tx *gorm.DB, name, category string, calories, protein float64) *types.Dish {
	tb.Helper()
	now := time.Now().UTC()
	d := &types.Dish{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Calories:  calories,
		Protein:   protein,
		FirstSeen: now,
		LastSeen:  now,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed dish: %v", err)
	}
	return d
}

func SeedMenu(tb testing.TB, ctx context.Context, tx *gorm.DB, date time.Time, mealType string, dishes ...*types.Dish) *types.DailyMenu {
	tb.Helper()
	m := &types.DailyMenu{
		ID:       uuid.New(),
		Date:     date,
		MealType: mealType,
		Dishes:   dishes,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed menu: %v", err)
	}
	return m
}

func SeedFeedback(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, dishID *uuid.UUID, rating int, daysAgo int) *types.UserFeedback {
	tb.Helper()
	fb := &types.UserFeedback{
		ID:           uuid.New(),
		UserID:       userID,
		DishID:       dishID,
		Rating:       rating,
		FeedbackDate: time.Now().UTC().AddDate(0, 0, -daysAgo),
	}
	if err := tx.WithContext(ctx).Create(fb).Error; err != nil {
		tb.Fatalf("seed feedback: %v", err)
	}
	return fb
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
