package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type LifecycleService interface {
	// MarkSent stamps the delivery time once; later calls keep the first stamp.
	MarkSent(ctx context.Context, planID uuid.UUID) (*PlanRecord, error)

	// Approve moves a pending plan to approved. Approving an approved plan is
	// a no-op; any other source state is an ErrInvalidTransition.
	Approve(ctx context.Context, planID uuid.UUID) (*PlanRecord, error)

	// Complete moves a pending or approved plan to completed and appends one
	// meal history row per item. Completing a completed plan is a no-op and
	// appends nothing.
	Complete(ctx context.Context, planID uuid.UUID) (*PlanRecord, error)

	// ExpireElapsed expires every open plan whose meal window has closed.
	// Returns the number of plans expired.
	ExpireElapsed(ctx context.Context, now time.Time, loc *time.Location) (int, error)
}

type lifecycleService struct {
	db      *gorm.DB
	plans   repos.MealPlanRepo
	history repos.MealHistoryRepo
	log     *logger.Logger
}

func NewLifecycleService(db *gorm.DB, plans repos.MealPlanRepo, history repos.MealHistoryRepo, baseLog *logger.Logger) LifecycleService {
	return &lifecycleService{
		db:      db,
		plans:   plans,
		history: history,
		log:     baseLog.With("service", "LifecycleService"),
	}
}

func (s *lifecycleService) MarkSent(ctx context.Context, planID uuid.UUID) (*PlanRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
	plan, err := s.load(dbc, planID)
	if err != nil {
		return nil, err
	}
	if plan.SentAt == nil {
		now := time.Now().UTC()
		if err := s.plans.UpdateFields(dbc, planID, map[string]any{"sent_at": now}); err != nil {
			return nil, fmt.Errorf("mark sent: %w", err)
		}
		plan.SentAt = &now
	}
	return BuildPlanRecord(plan)
}

func (s *lifecycleService) Approve(ctx context.Context, planID uuid.UUID) (*PlanRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
	plan, err := s.load(dbc, planID)
	if err != nil {
		return nil, err
	}

	switch plan.Status {
	case types.PlanStatusApproved:
		return BuildPlanRecord(plan)
	case types.PlanStatusPending:
	default:
		return nil, &InvalidTransitionError{PlanID: planID, From: plan.Status, To: types.PlanStatusApproved}
	}

	now := time.Now().UTC()
	fields := map[string]any{"status": types.PlanStatusApproved, "approved_at": now}
	if err := s.plans.UpdateFields(dbc, planID, fields); err != nil {
		return nil, fmt.Errorf("approve plan: %w", err)
	}
	plan.Status = types.PlanStatusApproved
	plan.ApprovedAt = &now
	s.log.Info("Plan approved", "plan_id", planID, "user_id", plan.UserID)
	return BuildPlanRecord(plan)
}

func (s *lifecycleService) Complete(ctx context.Context, planID uuid.UUID) (*PlanRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}
	plan, err := s.load(dbc, planID)
	if err != nil {
		return nil, err
	}

	switch plan.Status {
	case types.PlanStatusCompleted:
		return BuildPlanRecord(plan)
	case types.PlanStatusPending, types.PlanStatusApproved:
	default:
		return nil, &InvalidTransitionError{PlanID: planID, From: plan.Status, To: types.PlanStatusCompleted}
	}

	now := time.Now().UTC()
	rows := make([]*types.MealHistory, 0, len(plan.Items))
	for _, it := range plan.Items {
		rows = append(rows, &types.MealHistory{
			ID:          uuid.New(),
			UserID:      plan.UserID,
			DishID:      it.DishID,
			DailyMenuID: &plan.DailyMenuID,
			MealPlanID:  &plan.ID,
			Quantity:    it.Quantity,
			EatenAt:     now,
		})
	}

	// Status flip and history append land together or not at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		fields := map[string]any{"status": types.PlanStatusCompleted, "completed_at": now}
		if err := s.plans.UpdateFields(txc, planID, fields); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := s.history.Append(txc, rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("complete plan: %w", err)
	}

	plan.Status = types.PlanStatusCompleted
	plan.CompletedAt = &now
	s.log.Info("Plan completed", "plan_id", planID, "user_id", plan.UserID, "items", len(rows))
	return BuildPlanRecord(plan)
}

func (s *lifecycleService) ExpireElapsed(ctx context.Context, now time.Time, loc *time.Location) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	open, err := s.plans.ListOpen(dbc, DateOf(now))
	if err != nil {
		return 0, fmt.Errorf("list open plans: %w", err)
	}

	expired := 0
	for _, plan := range open {
		if plan.DailyMenu == nil {
			continue
		}
		end := MealWindowEnd(plan.DailyMenu.Date, plan.DailyMenu.MealType, loc)
		if !now.After(end) {
			continue
		}
		if err := s.plans.UpdateFields(dbc, plan.ID, map[string]any{"status": types.PlanStatusExpired}); err != nil {
			return expired, fmt.Errorf("expire plan %s: %w", plan.ID, err)
		}
		expired++
	}
	if expired > 0 {
		s.log.Info("Expired elapsed plans", "count", expired)
	}
	return expired, nil
}

func (s *lifecycleService) load(dbc dbctx.Context, planID uuid.UUID) (*types.MealPlan, error) {
	plan, err := s.plans.GetByID(dbc, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %s not found", planID)
	}
	return plan, nil
}
