package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// ---- repo fakes ----

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*types.UserProfile
	updates  []map[string]interface{}
}

func newFakeProfileRepo(rows ...*types.UserProfile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[uuid.UUID]*types.UserProfile{}}
	for _, p := range rows {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) Create(dbc dbctx.Context, rows []*types.UserProfile) ([]*types.UserProfile, error) {
	for _, p := range rows {
		r.profiles[p.ID] = p
	}
	return rows, nil
}

func (r *fakeProfileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserProfile, error) {
	return r.profiles[id], nil
}

func (r *fakeProfileRepo) GetByChatID(dbc dbctx.Context, chatID int64) (*types.UserProfile, error) {
	for _, p := range r.profiles {
		if p.ChatID != nil && *p.ChatID == chatID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProfileRepo) ListForMeal(dbc dbctx.Context, mealType string) ([]*types.UserProfile, error) {
	var out []*types.UserProfile
	for _, p := range r.profiles {
		if p.NotificationsEnabled && p.WantsMeal(mealType) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.updates = append(r.updates, updates)
	if p, ok := r.profiles[id]; ok {
		if v, ok := updates["food_preferences"].(string); ok {
			p.FoodPreferences = v
		}
	}
	return nil
}

type fakeMenuRepo struct {
	menus map[string]*types.DailyMenu
}

func menuKey(date time.Time, mealType string) string {
	return date.Format("2006-01-02") + "/" + mealType
}

func newFakeMenuRepo(rows ...*types.DailyMenu) *fakeMenuRepo {
	r := &fakeMenuRepo{menus: map[string]*types.DailyMenu{}}
	for _, m := range rows {
		r.menus[menuKey(m.Date, m.MealType)] = m
	}
	return r
}

func (r *fakeMenuRepo) GetBySlot(dbc dbctx.Context, date time.Time, mealType string) (*types.DailyMenu, error) {
	return r.menus[menuKey(date, mealType)], nil
}

type fakePlanRepo struct {
	plans map[uuid.UUID]*types.MealPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[uuid.UUID]*types.MealPlan{}}
}

func (r *fakePlanRepo) CreatePendingSuperseding(dbc dbctx.Context, row *types.MealPlan) (*types.MealPlan, []uuid.UUID, error) {
	var superseded []uuid.UUID
	for _, p := range r.plans {
		if p.UserID == row.UserID && p.DailyMenuID == row.DailyMenuID && p.Status == types.PlanStatusPending {
			p.Status = types.PlanStatusSuperseded
			superseded = append(superseded, p.ID)
		}
	}
	r.plans[row.ID] = row
	return row, superseded, nil
}

func (r *fakePlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MealPlan, error) {
	return r.plans[id], nil
}

func (r *fakePlanRepo) GetLatestBySlot(dbc dbctx.Context, userID, dailyMenuID uuid.UUID) (*types.MealPlan, error) {
	var latest *types.MealPlan
	for _, p := range r.plans {
		if p.UserID != userID || p.DailyMenuID != dailyMenuID || p.Status == types.PlanStatusSuperseded {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	return latest, nil
}

func (r *fakePlanRepo) ListOpen(dbc dbctx.Context, onOrBefore time.Time) ([]*types.MealPlan, error) {
	var out []*types.MealPlan
	for _, p := range r.plans {
		if p.Status != types.PlanStatusPending && p.Status != types.PlanStatusApproved {
			continue
		}
		if p.DailyMenu != nil && p.DailyMenu.Date.After(onOrBefore) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePlanRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	p, ok := r.plans[id]
	if !ok {
		return nil
	}
	if v, ok := updates["status"].(string); ok {
		p.Status = v
	}
	return nil
}

type fakeHistoryRepo struct {
	rows []*types.MealHistory
}

func (r *fakeHistoryRepo) Append(dbc dbctx.Context, rows []*types.MealHistory) ([]*types.MealHistory, error) {
	r.rows = append(r.rows, rows...)
	return rows, nil
}

func (r *fakeHistoryRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.MealHistory, error) {
	var out []*types.MealHistory
	for _, h := range r.rows {
		if h.UserID == userID && !h.EatenAt.Before(since) {
			out = append(out, h)
		}
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	rows []*types.UserFeedback
}

func (r *fakeFeedbackRepo) Create(dbc dbctx.Context, row *types.UserFeedback) (*types.UserFeedback, error) {
	r.rows = append(r.rows, row)
	return row, nil
}

func (r *fakeFeedbackRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.UserFeedback, error) {
	var out []*types.UserFeedback
	for _, fb := range r.rows {
		if fb.UserID == userID && !fb.FeedbackDate.Before(since) {
			out = append(out, fb)
		}
	}
	return out, nil
}

type fakeDishRepo struct {
	recent     []*types.Dish
	searchHits []*types.Dish
	lastSearch string
}

func (r *fakeDishRepo) Upsert(dbc dbctx.Context, rows []*types.Dish) ([]*types.Dish, error) {
	r.recent = append(r.recent, rows...)
	return rows, nil
}

func (r *fakeDishRepo) GetByName(dbc dbctx.Context, name string) (*types.Dish, error) {
	for _, d := range r.recent {
		if NormalizeDishName(d.Name) == NormalizeDishName(name) {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDishRepo) SearchByName(dbc dbctx.Context, fragment string, limit int) ([]*types.Dish, error) {
	r.lastSearch = fragment
	if limit > 0 && len(r.searchHits) > limit {
		return r.searchHits[:limit], nil
	}
	return r.searchHits, nil
}

func (r *fakeDishRepo) ListRecent(dbc dbctx.Context, since time.Time, limit int) ([]*types.Dish, error) {
	return r.recent, nil
}

// ---- AI fakes ----

type fakeAI struct {
	planCalls     int
	planResponses []*PlanDraft
	planErr       error
	lastPlanReq   PlanRequest

	logDraft *LogDraft
	logErr   error

	ratingDraft   *RatingDraft
	ratingErr     error
	lastRatingReq FeedbackRequest
}

func (f *fakeAI) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanDraft, error) {
	f.lastPlanReq = req
	f.planCalls++
	if f.planErr != nil {
		return nil, f.planErr
	}
	i := f.planCalls - 1
	if i >= len(f.planResponses) {
		i = len(f.planResponses) - 1
	}
	return f.planResponses[i], nil
}

func (f *fakeAI) ParseMealLog(ctx context.Context, req LogRequest) (*LogDraft, error) {
	if f.logErr != nil {
		return nil, f.logErr
	}
	return f.logDraft, nil
}

func (f *fakeAI) ExtractFeedback(ctx context.Context, req FeedbackRequest) (*RatingDraft, error) {
	f.lastRatingReq = req
	if f.ratingErr != nil {
		return nil, f.ratingErr
	}
	return f.ratingDraft, nil
}

// ---- shared fixtures ----

func dish(name, category string, calories, protein float64) *types.Dish {
	return &types.Dish{
		ID:       uuid.New(),
		Name:     name,
		Category: category,
		Calories: calories,
		Protein:  protein,
	}
}

func profile() *types.UserProfile {
	return &types.UserProfile{
		ID:                    uuid.New(),
		Username:              "sam",
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
}

func menuFor(date time.Time, mealType string, dishes ...*types.Dish) *types.DailyMenu {
	return &types.DailyMenu{
		ID:       uuid.New(),
		Date:     date,
		MealType: mealType,
		Dishes:   dishes,
	}
}
