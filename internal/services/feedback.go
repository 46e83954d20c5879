package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// FeedbackResult reports what an ingest produced.
type FeedbackResult struct {
	Recorded           []*types.UserFeedback `json:"recorded"`
	Ambiguous          bool                  `json:"ambiguous"`
	GeneralPreferences string                `json:"general_preferences,omitempty"`
}

type FeedbackService interface {
	// Ingest extracts dish ratings from free text and records them. Text the
	// model cannot map to a clear opinion is kept as a single ambiguous row
	// with a neutral rating so nothing the user said is lost. subjectHint may
	// name what the feedback probably concerns ("that pizza", the last plan
	// shown); empty means no hint.
	Ingest(ctx context.Context, userID uuid.UUID, text, subjectHint string, now time.Time) (*FeedbackResult, error)
}

type feedbackService struct {
	dishes      repos.DishRepo
	feedback    repos.UserFeedbackRepo
	profiles    repos.UserProfileRepo
	ai          PlannerAI
	recentDays  int
	recentLimit int
	log         *logger.Logger
}

func NewFeedbackService(
	dishes repos.DishRepo,
	feedback repos.UserFeedbackRepo,
	profiles repos.UserProfileRepo,
	ai PlannerAI,
	recentDays, recentLimit int,
	baseLog *logger.Logger,
) FeedbackService {
	if recentDays <= 0 {
		recentDays = DefaultRecentDishDays
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentDishLimit
	}
	return &feedbackService{
		dishes:      dishes,
		feedback:    feedback,
		profiles:    profiles,
		ai:          ai,
		recentDays:  recentDays,
		recentLimit: recentLimit,
		log:         baseLog.With("service", "FeedbackService"),
	}
}

func (s *feedbackService) Ingest(ctx context.Context, userID uuid.UUID, text, subjectHint string, now time.Time) (*FeedbackResult, error) {
	dbc := dbctx.Context{Ctx: ctx}

	recent, err := s.dishes.ListRecent(dbc, now.AddDate(0, 0, -s.recentDays), s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent dishes: %w", err)
	}
	names := make([]string, 0, len(recent))
	for _, d := range recent {
		names = append(names, d.Name)
	}

	draft, err := s.ai.ExtractFeedback(ctx, FeedbackRequest{
		Text:         text,
		RecentDishes: names,
		SubjectHint:  strings.TrimSpace(subjectHint),
	})
	if err != nil {
		return nil, fmt.Errorf("extract feedback: %w", err)
	}

	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("encode feedback draft: %w", err)
	}

	result := &FeedbackResult{GeneralPreferences: strings.TrimSpace(draft.GeneralPreferences)}

	if !draft.Confident || len(draft.Dishes) == 0 {
		// Neutral placeholder row; the original wording survives in Comment.
		fb := &types.UserFeedback{
			ID:           uuid.New(),
			UserID:       userID,
			Rating:       types.RatingNeutral,
			Comment:      text,
			Ambiguous:    true,
			Raw:          datatypes.JSON(raw),
			FeedbackDate: now.UTC(),
		}
		if _, err := s.feedback.Create(dbc, fb); err != nil {
			return nil, fmt.Errorf("record ambiguous feedback: %w", err)
		}
		result.Recorded = append(result.Recorded, fb)
		result.Ambiguous = true
	} else {
		index := NewDishIndex(recent)
		for _, rd := range draft.Dishes {
			fb := &types.UserFeedback{
				ID:           uuid.New(),
				UserID:       userID,
				Rating:       types.ClampRating(rd.Rating),
				Comment:      rd.Reason,
				Raw:          datatypes.JSON(raw),
				FeedbackDate: now.UTC(),
			}
			dish := index.ResolveExact(rd.Name)
			if dish == nil {
				dish = index.ResolveFuzzy(rd.Name)
			}
			if dish == nil {
				if dish, err = s.dishes.GetByName(dbc, rd.Name); err != nil {
					return nil, fmt.Errorf("lookup dish %q: %w", rd.Name, err)
				}
			}
			if dish != nil {
				fb.DishID = &dish.ID
				fb.Category = dish.Category
			} else {
				// No catalog match; keep the mention itself so the rating is
				// not attributed to the wrong dish.
				fb.Category = rd.Name
			}
			if _, err := s.feedback.Create(dbc, fb); err != nil {
				return nil, fmt.Errorf("record feedback: %w", err)
			}
			result.Recorded = append(result.Recorded, fb)
		}
	}

	if result.GeneralPreferences != "" {
		if err := s.appendGeneralPreferences(dbc, userID, result.GeneralPreferences); err != nil {
			return nil, err
		}
	}

	s.log.Info("Feedback ingested",
		"user_id", userID,
		"recorded", len(result.Recorded),
		"ambiguous", result.Ambiguous,
	)
	return result, nil
}

func (s *feedbackService) appendGeneralPreferences(dbc dbctx.Context, userID uuid.UUID, prefs string) error {
	profile, err := s.profiles.GetByID(dbc, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
	}
	if strings.Contains(strings.ToLower(profile.FoodPreferences), strings.ToLower(prefs)) {
		return nil
	}
	merged := prefs
	if profile.FoodPreferences != "" {
		merged = profile.FoodPreferences + "; " + prefs
	}
	if err := s.profiles.UpdateFields(dbc, userID, map[string]any{"food_preferences": merged}); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}
