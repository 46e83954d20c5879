package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// DefaultBatchConcurrency bounds parallel model calls during a batch run.
const DefaultBatchConcurrency = 4

// BatchFailure records one user whose generation failed; the run continues.
type BatchFailure struct {
	UserID uuid.UUID `json:"user_id"`
	Reason string    `json:"reason"`
}

// BatchResult summarizes one batch generation run.
type BatchResult struct {
	Slot      MealSlot       `json:"slot"`
	Generated int            `json:"generated"`
	Skipped   int            `json:"skipped"`
	Failures  []BatchFailure `json:"failures,omitempty"`
}

type BatchService interface {
	// GenerateForMeal fans plan generation out over every user subscribed to
	// the slot's meal. Users who already hold a live plan for the slot are
	// skipped. Per-user failures are collected, not fatal.
	GenerateForMeal(ctx context.Context, slot MealSlot) (*BatchResult, error)
}

type batchService struct {
	profiles    repos.UserProfileRepo
	menus       repos.DailyMenuRepo
	plans       repos.MealPlanRepo
	planner     PlannerService
	concurrency int
	log         *logger.Logger
}

func NewBatchService(
	profiles repos.UserProfileRepo,
	menus repos.DailyMenuRepo,
	plans repos.MealPlanRepo,
	planner PlannerService,
	concurrency int,
	baseLog *logger.Logger,
) BatchService {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &batchService{
		profiles:    profiles,
		menus:       menus,
		plans:       plans,
		planner:     planner,
		concurrency: concurrency,
		log:         baseLog.With("service", "BatchService"),
	}
}

func (s *batchService) GenerateForMeal(ctx context.Context, slot MealSlot) (*BatchResult, error) {
	dbc := dbctx.Context{Ctx: ctx}

	menu, err := s.menus.GetBySlot(dbc, slot.Date, slot.MealType)
	if err != nil {
		return nil, err
	}
	if menu == nil || len(menu.Dishes) == 0 {
		return nil, &NoMenuAvailableError{Date: slot.Date, MealType: slot.MealType}
	}

	users, err := s.profiles.ListForMeal(dbc, slot.MealType)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Slot: slot}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	started := time.Now()

	for _, user := range users {
		user := user
		g.Go(func() error {
			userID := user.ID
			gdbc := dbctx.Context{Ctx: gctx}

			latest, err := s.plans.GetLatestBySlot(gdbc, userID, menu.ID)
			if err == nil && latest != nil && latest.Status != types.PlanStatusExpired {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}
			if err != nil {
				mu.Lock()
				result.Failures = append(result.Failures, BatchFailure{UserID: userID, Reason: err.Error()})
				mu.Unlock()
				return nil
			}

			if _, err := s.planner.Generate(gctx, userID, slot); err != nil {
				mu.Lock()
				result.Failures = append(result.Failures, BatchFailure{UserID: userID, Reason: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.Generated++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	s.log.Info("Batch generation finished",
		"meal_type", slot.MealType,
		"date", slot.Date.Format("2006-01-02"),
		"users", len(users),
		"generated", result.Generated,
		"skipped", result.Skipped,
		"failures", len(result.Failures),
		"elapsed", time.Since(started).String(),
	)
	return result, nil
}
