package services

import (
	"testing"
	"time"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestResolveMealSlotWindows(t *testing.T) {
	cases := []struct {
		name     string
		now      time.Time
		wantMeal string
		wantDate time.Time
	}{
		{"midnight", at(0, 0), types.MealBreakfast, DateOf(at(0, 0))},
		{"late morning", at(10, 59), types.MealBreakfast, DateOf(at(0, 0))},
		{"lunch opens", at(11, 0), types.MealLunch, DateOf(at(0, 0))},
		{"lunch closes", at(14, 59), types.MealLunch, DateOf(at(0, 0))},
		{"dinner opens", at(15, 0), types.MealDinner, DateOf(at(0, 0))},
		{"dinner closes", at(21, 59), types.MealDinner, DateOf(at(0, 0))},
		{"late night rolls over", at(22, 0), types.MealBreakfast, DateOf(at(0, 0)).AddDate(0, 0, 1)},
		{"just before midnight", at(23, 59), types.MealBreakfast, DateOf(at(0, 0)).AddDate(0, 0, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slot := ResolveMealSlot(tc.now)
			if slot.MealType != tc.wantMeal {
				t.Fatalf("meal = %q, want %q", slot.MealType, tc.wantMeal)
			}
			if !slot.Date.Equal(tc.wantDate) {
				t.Fatalf("date = %v, want %v", slot.Date, tc.wantDate)
			}
		})
	}
}

func TestResolveMealSlotEveryHourCovered(t *testing.T) {
	for h := 0; h < 24; h++ {
		slot := ResolveMealSlot(at(h, 30))
		if !types.ValidMealType(slot.MealType) {
			t.Fatalf("hour %d resolved to invalid meal %q", h, slot.MealType)
		}
	}
}

func TestMealWindowEnd(t *testing.T) {
	date := DateOf(at(0, 0))
	loc := time.FixedZone("test", -5*3600)

	end := MealWindowEnd(date, types.MealLunch, loc)
	if end.Hour() != 15 || end.Location() != loc {
		t.Fatalf("lunch window end = %v", end)
	}
	if got := MealWindowEnd(date, types.MealBreakfast, nil); got.Hour() != 11 {
		t.Fatalf("breakfast window end = %v", got)
	}
	if got := MealWindowEnd(date, types.MealDinner, time.UTC); got.Hour() != 22 {
		t.Fatalf("dinner window end = %v", got)
	}
}

func TestDateOfNormalizes(t *testing.T) {
	loc := time.FixedZone("east", 9*3600)
	d := DateOf(time.Date(2026, 3, 10, 23, 45, 0, 0, loc))
	if d.Hour() != 0 || d.Day() != 10 || d.Location() != time.UTC {
		t.Fatalf("DateOf = %v", d)
	}
}
