package plans_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mealwise/mealwise-backend/internal/data/repos/plans"
	"github.com/mealwise/mealwise-backend/internal/data/repos/testutil"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
)

func pendingPlan(userID, menuID, dishID uuid.UUID) *types.MealPlan {
	return &types.MealPlan{
		ID:          uuid.New(),
		UserID:      userID,
		DailyMenuID: menuID,
		Status:      types.PlanStatusPending,
		CreatedAt:   time.Now().UTC(),
		Items: []*types.MealPlanItem{
			{ID: uuid.New(), DishID: dishID, Quantity: 1, Position: 0},
		},
	}
}

func TestCreatePendingSupersedesPrior(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := plans.NewMealPlanRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedProfile(t, ctx, tx, "plans-user")
	d := testutil.SeedDish(t, ctx, tx, "Plan Dish", "Entrees", 300, 25)
	m := testutil.SeedMenu(t, ctx, tx, time.Now().UTC().Truncate(24*time.Hour), types.MealDinner, d)

	first, superseded, err := repo.CreatePendingSuperseding(dbc, pendingPlan(user.ID, m.ID, d.ID))
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if len(superseded) != 0 {
		t.Fatalf("first create superseded %v", superseded)
	}

	second, superseded, err := repo.CreatePendingSuperseding(dbc, pendingPlan(user.ID, m.ID, d.ID))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if len(superseded) != 1 || superseded[0] != first.ID {
		t.Fatalf("superseded = %v, want [%s]", superseded, first.ID)
	}

	reloaded, err := repo.GetByID(dbc, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Status != types.PlanStatusSuperseded {
		t.Fatalf("first plan status = %q", reloaded.Status)
	}

	latest, err := repo.GetLatestBySlot(dbc, user.ID, m.ID)
	if err != nil {
		t.Fatalf("GetLatestBySlot: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("latest = %+v, want %s", latest, second.ID)
	}
	if latest.Status != types.PlanStatusPending {
		t.Fatalf("latest status = %q", latest.Status)
	}
}

func TestGetByIDPreloadsItems(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := plans.NewMealPlanRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedProfile(t, ctx, tx, "preload-user")
	a := testutil.SeedDish(t, ctx, tx, "Dish A", "Entrees", 300, 25)
	b := testutil.SeedDish(t, ctx, tx, "Dish B", "Sides", 150, 5)
	m := testutil.SeedMenu(t, ctx, tx, time.Now().UTC().Truncate(24*time.Hour), types.MealLunch, a, b)

	plan := &types.MealPlan{
		ID:          uuid.New(),
		UserID:      user.ID,
		DailyMenuID: m.ID,
		Status:      types.PlanStatusPending,
		CreatedAt:   time.Now().UTC(),
		Items: []*types.MealPlanItem{
			{ID: uuid.New(), DishID: b.ID, Quantity: 1, Position: 1},
			{ID: uuid.New(), DishID: a.ID, Quantity: 2, Position: 0},
		},
	}
	if _, _, err := repo.CreatePendingSuperseding(dbc, plan); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(dbc, plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d", len(got.Items))
	}
	if got.Items[0].Position != 0 || got.Items[0].Dish == nil || got.Items[0].Dish.Name != "Dish A" {
		t.Fatalf("items not ordered by position with dishes preloaded: %+v", got.Items[0])
	}
	if got.DailyMenu == nil || got.DailyMenu.MealType != types.MealLunch {
		t.Fatal("menu not preloaded")
	}
}

func TestListOpenFiltersStatusAndDate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := plans.NewMealPlanRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedProfile(t, ctx, tx, "open-user")
	d := testutil.SeedDish(t, ctx, tx, "Open Dish", "Entrees", 300, 25)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	mToday := testutil.SeedMenu(t, ctx, tx, today, types.MealLunch, d)
	mFuture := testutil.SeedMenu(t, ctx, tx, today.AddDate(0, 0, 2), types.MealLunch, d)

	open, _, err := repo.CreatePendingSuperseding(dbc, pendingPlan(user.ID, mToday.ID, d.ID))
	if err != nil {
		t.Fatalf("create open: %v", err)
	}
	if _, _, err := repo.CreatePendingSuperseding(dbc, pendingPlan(user.ID, mFuture.ID, d.ID)); err != nil {
		t.Fatalf("create future: %v", err)
	}

	rows, err := repo.ListOpen(dbc, today)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	found := false
	for _, p := range rows {
		if p.ID == open.ID {
			found = true
			if p.DailyMenu == nil {
				t.Fatal("ListOpen must preload the menu")
			}
		}
		if p.DailyMenu != nil && p.DailyMenu.Date.After(today) {
			t.Fatalf("future plan leaked into open list: %+v", p)
		}
	}
	if !found {
		t.Fatal("open plan missing from list")
	}
}

func TestUpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := plans.NewMealPlanRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	user := testutil.SeedProfile(t, ctx, tx, "update-user")
	d := testutil.SeedDish(t, ctx, tx, "Update Dish", "Entrees", 300, 25)
	m := testutil.SeedMenu(t, ctx, tx, time.Now().UTC().Truncate(24*time.Hour), types.MealDinner, d)

	plan, _, err := repo.CreatePendingSuperseding(dbc, pendingPlan(user.ID, m.ID, d.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	now := time.Now().UTC()
	err = repo.UpdateFields(dbc, plan.ID, map[string]interface{}{
		"status":      types.PlanStatusApproved,
		"approved_at": now,
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByID(dbc, plan.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.PlanStatusApproved || got.ApprovedAt == nil {
		t.Fatalf("update not applied: %+v", got)
	}
}
