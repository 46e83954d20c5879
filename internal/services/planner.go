package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// DefaultPreferenceTopN caps how many liked and avoided dishes the prompt names.
const DefaultPreferenceTopN = 5

type PlannerService interface {
	// Generate builds, validates, and persists a pending plan for the slot.
	// One stricter retry when a draft is invalid or the model output cannot be
	// used; ErrPlanGenerationFailed after that, with nothing persisted.
	// Context cancellation propagates immediately instead. ErrNoMenuAvailable
	// when the slot has no dishes. Any prior pending plan for the same slot is
	// superseded in the same transaction.
	Generate(ctx context.Context, userID uuid.UUID, slot MealSlot) (*PlanRecord, error)

	// GenerateNow resolves the slot from the clock and generates for it.
	GenerateNow(ctx context.Context, userID uuid.UUID, now time.Time) (*PlanRecord, error)
}

type plannerService struct {
	profiles repos.UserProfileRepo
	menus    repos.DailyMenuRepo
	plans    repos.MealPlanRepo
	prefs    PreferenceService
	ai       PlannerAI
	locks    SlotLocker
	topN     int
	log      *logger.Logger
}

func NewPlannerService(
	profiles repos.UserProfileRepo,
	menus repos.DailyMenuRepo,
	plans repos.MealPlanRepo,
	prefs PreferenceService,
	ai PlannerAI,
	locks SlotLocker,
	topN int,
	baseLog *logger.Logger,
) PlannerService {
	if locks == nil {
		locks = NopSlotLocker{}
	}
	if topN <= 0 {
		topN = DefaultPreferenceTopN
	}
	return &plannerService{
		profiles: profiles,
		menus:    menus,
		plans:    plans,
		prefs:    prefs,
		ai:       ai,
		locks:    locks,
		topN:     topN,
		log:      baseLog.With("service", "PlannerService"),
	}
}

func (s *plannerService) GenerateNow(ctx context.Context, userID uuid.UUID, now time.Time) (*PlanRecord, error) {
	return s.Generate(ctx, userID, ResolveMealSlot(now))
}

func (s *plannerService) Generate(ctx context.Context, userID uuid.UUID, slot MealSlot) (*PlanRecord, error) {
	dbc := dbctx.Context{Ctx: ctx}

	profile, err := s.profiles.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("user %s: %w", userID, ErrProfileNotFound)
	}

	menu, err := s.menus.GetBySlot(dbc, slot.Date, slot.MealType)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	if menu == nil || len(menu.Dishes) == 0 {
		return nil, &NoMenuAvailableError{Date: slot.Date, MealType: slot.MealType}
	}

	scores, err := s.prefs.ScoreMenu(ctx, userID, menu.Dishes, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("score menu: %w", err)
	}
	preferred, avoided := TopBottom(scores, s.topN)

	index := NewDishIndex(menu.Dishes)
	req := PlanRequest{
		Profile:   profile,
		Menu:      menu,
		Preferred: preferred,
		Avoided:   avoided,
		Date:      slot.Date,
		MealType:  slot.MealType,
	}

	// At most two model calls: the initial attempt plus one stricter retry
	// that names the offending items.
	var (
		items     []*types.MealPlanItem
		rationale string
		lastFault string
	)
	for attempt := 0; attempt < 2; attempt++ {
		draft, err := s.ai.GeneratePlan(ctx, req)
		if err != nil {
			// The caller's deadline always wins; everything else, including a
			// reply the model produced but we could not parse, burns an
			// attempt like an invalid draft does.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("generate plan: %w", err)
			}
			lastFault = err.Error()
			s.log.Warn("Plan draft unusable",
				"user_id", userID,
				"meal_type", slot.MealType,
				"attempt", attempt+1,
				"error", err.Error(),
			)
			continue
		}
		valid, invalid, reason := validatePlanDraft(draft, index)
		if reason == "" {
			items = valid
			rationale = draft.Rationale
			break
		}
		lastFault = reason
		req.InvalidItems = invalid
		s.log.Warn("Plan draft rejected",
			"user_id", userID,
			"meal_type", slot.MealType,
			"attempt", attempt+1,
			"reason", reason,
		)
	}
	if items == nil {
		return nil, &PlanGenerationFailedError{
			UserID: userID, Date: slot.Date, MealType: slot.MealType, Reason: lastFault,
		}
	}

	// The lock only narrows the duplicate-work window; the partial unique
	// index on pending slots is what actually guarantees a single survivor.
	key := slotLockKey(userID, menu.ID)
	if ok, lockErr := s.locks.TryLock(ctx, key); lockErr != nil {
		s.log.Warn("Slot lock unavailable", "key", key, "error", lockErr.Error())
	} else if ok {
		defer s.locks.Unlock(ctx, key)
	}

	now := time.Now().UTC()
	plan := &types.MealPlan{
		ID:          uuid.New(),
		UserID:      userID,
		DailyMenuID: menu.ID,
		Items:       items,
		Rationale:   rationale,
		Status:      types.PlanStatusPending,
		CreatedAt:   now,
	}
	totals := ComputeTotals(items)
	if plan.Totals, err = totals.JSON(); err != nil {
		return nil, fmt.Errorf("encode totals: %w", err)
	}

	row, superseded, err := s.plans.CreatePendingSuperseding(dbc, plan)
	if err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	if len(superseded) > 0 {
		s.log.Info("Superseded stale pending plans",
			"user_id", userID,
			"daily_menu_id", menu.ID,
			"count", len(superseded),
		)
	}

	row.DailyMenu = menu
	return BuildPlanRecord(row)
}

// validatePlanDraft checks a draft against the slot menu. Returns the built
// items on success, otherwise the invalid names and a human-readable reason.
func validatePlanDraft(draft *PlanDraft, index *DishIndex) (items []*types.MealPlanItem, invalid []string, reason string) {
	if draft == nil || len(draft.Items) == 0 {
		return nil, nil, "empty plan"
	}

	byDish := map[uuid.UUID]*types.MealPlanItem{}
	position := 0
	for _, it := range draft.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			invalid = append(invalid, "(unnamed item)")
			continue
		}
		dish := index.ResolveExact(name)
		if dish == nil {
			invalid = append(invalid, name)
			continue
		}
		qty := ParseQuantity(it.Quantity)
		if qty <= 0 {
			invalid = append(invalid, fmt.Sprintf("%s (quantity %q)", name, it.Quantity))
			continue
		}
		if existing, ok := byDish[dish.ID]; ok {
			existing.Quantity += qty
			continue
		}
		item := &types.MealPlanItem{
			ID:       uuid.New(),
			DishID:   dish.ID,
			Dish:     dish,
			Quantity: qty,
			Position: position,
		}
		byDish[dish.ID] = item
		items = append(items, item)
		position++
	}

	if len(invalid) > 0 {
		return nil, invalid, fmt.Sprintf("invalid items: %s", strings.Join(invalid, ", "))
	}
	if len(items) == 0 {
		return nil, nil, "no valid items"
	}
	return items, nil, ""
}

var quantityPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseQuantity pulls the first number out of a free-form quantity string
// ("2", "1.5 cups", "about 2 servings"). Defaults to one serving when the
// string holds no number at all.
func ParseQuantity(s string) float64 {
	m := quantityPattern.FindString(s)
	if m == "" {
		if strings.TrimSpace(s) == "" {
			return 1.0
		}
		// Words but no digits still mean one serving ("a bowl").
		return 1.0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 1.0
	}
	return v
}

func slotLockKey(userID, menuID uuid.UUID) string {
	return fmt.Sprintf("mealwise:plan:%s:%s", userID, menuID)
}
