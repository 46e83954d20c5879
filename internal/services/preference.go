package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// Decay half-lives in days, keyed by rating. Asymmetric on purpose: a strong
// dislike must keep suppressing a dish long after a mild like has faded.
var ratingHalfLifeDays = map[int]float64{
	types.RatingNeverAgain: 180,
	types.RatingBad:        90,
	types.RatingNeutral:    30,
	types.RatingGood:       60,
	types.RatingLove:       90,
}

// DefaultPreferenceWindowDays bounds how far back feedback is read. Covers the
// longest half-life twice over; older events contribute almost nothing.
const DefaultPreferenceWindowDays = 365

// DishScore pairs a dish with its decayed preference score.
type DishScore struct {
	Dish  *types.Dish
	Score float64
}

type PreferenceService interface {
	// ScoreDish returns the user's decayed score for one dish in [-2, 2].
	// Dish-level feedback wins; category feedback applies only when the dish
	// has none. 0.0 when no feedback matches.
	ScoreDish(ctx context.Context, userID uuid.UUID, dish *types.Dish, at time.Time) (float64, error)

	// ScoreMenu scores every dish on a menu in one feedback read.
	ScoreMenu(ctx context.Context, userID uuid.UUID, dishes []*types.Dish, at time.Time) ([]DishScore, error)
}

type preferenceService struct {
	feedback   repos.UserFeedbackRepo
	windowDays int
	log        *logger.Logger
}

func NewPreferenceService(feedback repos.UserFeedbackRepo, windowDays int, baseLog *logger.Logger) PreferenceService {
	if windowDays <= 0 {
		windowDays = DefaultPreferenceWindowDays
	}
	return &preferenceService{
		feedback:   feedback,
		windowDays: windowDays,
		log:        baseLog.With("service", "PreferenceService"),
	}
}

// decayWeight is the time weight of one rating: 2^(-age / halfLife).
// Strictly decreasing in age; exactly 0.5 at one half-life.
func decayWeight(rating int, ageDays float64) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	halfLife, ok := ratingHalfLifeDays[types.ClampRating(rating)]
	if !ok {
		halfLife = ratingHalfLifeDays[types.RatingNeutral]
	}
	return math.Exp2(-ageDays / halfLife)
}

type ratingEvent struct {
	rating int
	age    float64
}

// weightedScore folds events into Σ(r·w)/Σ(w). Empty input scores 0.0; there
// is no division-by-zero path.
func weightedScore(events []ratingEvent) float64 {
	var num, den float64
	for _, e := range events {
		w := decayWeight(e.rating, e.age)
		num += float64(e.rating) * w
		den += w
	}
	if den == 0 {
		return 0.0
	}
	return num / den
}

func (s *preferenceService) load(ctx context.Context, userID uuid.UUID, at time.Time) ([]*types.UserFeedback, error) {
	since := at.AddDate(0, 0, -s.windowDays)
	return s.feedback.ListByUserSince(dbctx.Context{Ctx: ctx}, userID, since)
}

func ageDays(at, feedbackDate time.Time) float64 {
	return at.Sub(feedbackDate).Hours() / 24
}

func (s *preferenceService) ScoreDish(ctx context.Context, userID uuid.UUID, dish *types.Dish, at time.Time) (float64, error) {
	rows, err := s.load(ctx, userID, at)
	if err != nil {
		return 0, err
	}
	return scoreDishRows(rows, dish, at), nil
}

func (s *preferenceService) ScoreMenu(ctx context.Context, userID uuid.UUID, dishes []*types.Dish, at time.Time) ([]DishScore, error) {
	rows, err := s.load(ctx, userID, at)
	if err != nil {
		return nil, err
	}
	out := make([]DishScore, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, DishScore{Dish: d, Score: scoreDishRows(rows, d, at)})
	}
	return out, nil
}

// scoreDishRows applies the dish-over-category precedence: when any
// dish-level event exists, category events are ignored for that dish.
func scoreDishRows(rows []*types.UserFeedback, dish *types.Dish, at time.Time) float64 {
	var dishEvents, categoryEvents []ratingEvent
	for _, fb := range rows {
		age := ageDays(at, fb.FeedbackDate)
		if fb.DishID != nil && *fb.DishID == dish.ID {
			dishEvents = append(dishEvents, ratingEvent{fb.Rating, age})
			continue
		}
		if dish.Category != "" && fb.DishID == nil && fb.Category == dish.Category {
			categoryEvents = append(categoryEvents, ratingEvent{fb.Rating, age})
		}
	}
	if len(dishEvents) > 0 {
		return weightedScore(dishEvents)
	}
	return weightedScore(categoryEvents)
}

// TopBottom splits scored dishes into the n most preferred (positive scores,
// descending) and n most avoided (negative scores, ascending). Neutral dishes
// appear in neither set.
func TopBottom(scores []DishScore, n int) (preferred, avoided []DishScore) {
	sorted := make([]DishScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	for _, s := range sorted {
		if s.Score > 0 && len(preferred) < n {
			preferred = append(preferred, s)
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Score < 0 && len(avoided) < n {
			avoided = append(avoided, sorted[i])
		}
	}
	return preferred, avoided
}
