package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealwise/mealwise-backend/internal/data/repos"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

const (
	// DefaultRecentDishDays bounds the dish context handed to the parser.
	DefaultRecentDishDays = 7
	// DefaultRecentDishLimit caps that context so prompts stay bounded.
	DefaultRecentDishLimit = 300

	nearestSuggestions = 3
)

// LoggedItem is one resolved dish written to meal history.
type LoggedItem struct {
	Dish     *types.Dish `json:"dish"`
	Quantity float64     `json:"quantity"`
}

// LogResult reports what a free-text log produced. Unresolved mentions are
// returned to the caller, never silently written as guesses.
type LogResult struct {
	MealType   string              `json:"meal_type"`
	Date       time.Time           `json:"date"`
	Logged     []LoggedItem        `json:"logged"`
	Unresolved []UnresolvedLogItem `json:"unresolved,omitempty"`
	Totals     NutritionTotals     `json:"totals"`
}

type MealLogService interface {
	// Log parses free text into history rows. Partial success is normal: the
	// resolvable items land, the rest come back in Unresolved.
	Log(ctx context.Context, userID uuid.UUID, text string, now time.Time) (*LogResult, error)
}

type mealLogService struct {
	dishes      repos.DishRepo
	menus       repos.DailyMenuRepo
	history     repos.MealHistoryRepo
	ai          PlannerAI
	recentDays  int
	recentLimit int
	log         *logger.Logger
}

func NewMealLogService(
	dishes repos.DishRepo,
	menus repos.DailyMenuRepo,
	history repos.MealHistoryRepo,
	ai PlannerAI,
	recentDays, recentLimit int,
	baseLog *logger.Logger,
) MealLogService {
	if recentDays <= 0 {
		recentDays = DefaultRecentDishDays
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentDishLimit
	}
	return &mealLogService{
		dishes:      dishes,
		menus:       menus,
		history:     history,
		ai:          ai,
		recentDays:  recentDays,
		recentLimit: recentLimit,
		log:         baseLog.With("service", "MealLogService"),
	}
}

func (s *mealLogService) Log(ctx context.Context, userID uuid.UUID, text string, now time.Time) (*LogResult, error) {
	dbc := dbctx.Context{Ctx: ctx}

	since := now.AddDate(0, 0, -s.recentDays)
	recent, err := s.dishes.ListRecent(dbc, since, s.recentLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent dishes: %w", err)
	}

	slot := ResolveMealSlot(now)
	names := make([]string, 0, len(recent))
	for _, d := range recent {
		names = append(names, d.Name)
	}

	draft, err := s.ai.ParseMealLog(ctx, LogRequest{
		Text:         text,
		RecentDishes: names,
		MealTypeHint: slot.MealType,
	})
	if err != nil {
		return nil, fmt.Errorf("parse meal log: %w", err)
	}

	mealType := slot.MealType
	date := slot.Date
	if types.ValidMealType(draft.MealType) {
		mealType = draft.MealType
		// An explicit meal always refers to today, even when the clock has
		// already rolled into tomorrow's breakfast window.
		date = DateOf(now)
	}

	// Menus are owned by the fetcher; logging never creates one. A slot with
	// no menu just leaves the history rows without a menu anchor.
	menu, err := s.menus.GetBySlot(dbc, date, mealType)
	if err != nil {
		return nil, fmt.Errorf("resolve menu slot: %w", err)
	}
	var menuID *uuid.UUID
	if menu != nil {
		menuID = &menu.ID
	}

	index := NewDishIndex(recent)
	result := &LogResult{MealType: mealType, Date: date}
	var rows []*types.MealHistory
	for _, it := range draft.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1.0
		}
		dish := index.ResolveExact(it.Name)
		if dish == nil {
			dish = index.ResolveFuzzy(it.Name)
		}
		if dish == nil {
			// Recent menus may miss a dish the catalog still knows.
			dish, err = s.dishes.GetByName(dbc, it.Name)
			if err != nil {
				return nil, fmt.Errorf("lookup dish %q: %w", it.Name, err)
			}
		}
		if dish == nil {
			nearest := index.Nearest(it.Name, nearestSuggestions)
			if len(nearest) == 0 {
				nearest = s.catalogSuggestions(dbc, it.Name)
			}
			result.Unresolved = append(result.Unresolved, UnresolvedLogItem{
				Mentioned: it.Name,
				Quantity:  qty,
				Nearest:   nearest,
			})
			continue
		}

		result.Logged = append(result.Logged, LoggedItem{Dish: dish, Quantity: qty})
		if dish.HasNutrition() {
			result.Totals = result.Totals.Add(dish, qty)
		}
		rows = append(rows, &types.MealHistory{
			ID:          uuid.New(),
			UserID:      userID,
			DishID:      dish.ID,
			DailyMenuID: menuID,
			Quantity:    qty,
			EatenAt:     now.UTC(),
		})
	}

	if len(rows) > 0 {
		if _, err := s.history.Append(dbc, rows); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
	}

	s.log.Info("Meal logged",
		"user_id", userID,
		"meal_type", mealType,
		"logged", len(result.Logged),
		"unresolved", len(result.Unresolved),
	)
	return result, nil
}

// catalogSuggestions searches the whole dish catalog when the recent-menu
// index has nothing to rank a mention against.
func (s *mealLogService) catalogSuggestions(dbc dbctx.Context, mention string) []string {
	frag := longestToken(mention)
	if frag == "" {
		return nil
	}
	hits, err := s.dishes.SearchByName(dbc, frag, nearestSuggestions)
	if err != nil {
		s.log.Warn("Catalog suggestion search failed", "fragment", frag, "error", err.Error())
		return nil
	}
	names := make([]string, 0, len(hits))
	for _, d := range hits {
		names = append(names, d.Name)
	}
	return names
}

func longestToken(s string) string {
	best := ""
	for _, t := range strings.Fields(NormalizeDishName(s)) {
		if len(t) > len(best) {
			best = t
		}
	}
	return best
}
