package services

import (
	"time"

	types "github.com/mealwise/mealwise-backend/internal/domain"
)

// MealSlot is the (date, meal type) pair a request refers to.
type MealSlot struct {
	Date     time.Time
	MealType string
}

// ResolveMealSlot maps a local wall-clock time to the meal the user most
// likely means. Half-open windows, contiguous over the day:
//
//	[00:00, 11:00) breakfast
//	[11:00, 15:00) lunch
//	[15:00, 22:00) dinner
//	[22:00, 24:00) next day's breakfast
func ResolveMealSlot(now time.Time) MealSlot {
	switch h := now.Hour(); {
	case h < 11:
		return MealSlot{Date: DateOf(now), MealType: types.MealBreakfast}
	case h < 15:
		return MealSlot{Date: DateOf(now), MealType: types.MealLunch}
	case h < 22:
		return MealSlot{Date: DateOf(now), MealType: types.MealDinner}
	default:
		return MealSlot{Date: DateOf(now.AddDate(0, 0, 1)), MealType: types.MealBreakfast}
	}
}

// DateOf truncates a timestamp to its calendar date, normalized to midnight
// UTC so date equality is stable across drivers.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MealWindowEnd returns the local instant at which the slot's window closes.
// Plans still open past this instant are eligible for expiry.
func MealWindowEnd(date time.Time, mealType string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	switch mealType {
	case types.MealBreakfast:
		return time.Date(y, m, d, 11, 0, 0, 0, loc)
	case types.MealLunch:
		return time.Date(y, m, d, 15, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 22, 0, 0, 0, loc)
	}
}
