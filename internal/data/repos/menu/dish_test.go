package menu_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mealwise/mealwise-backend/internal/data/repos/menu"
	"github.com/mealwise/mealwise-backend/internal/data/repos/testutil"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
)

func TestDishUpsertLastWins(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := menu.NewDishRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	now := time.Now().UTC()
	first := &types.Dish{
		ID: uuid.New(), Name: "Roasted Carrots", Category: "Sides",
		Calories: 80, Protein: 1, FirstSeen: now.AddDate(0, 0, -30), LastSeen: now.AddDate(0, 0, -30),
	}
	if _, err := repo.Upsert(dbc, []*types.Dish{first}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Re-fetched nutrition overwrites, first_seen survives.
	update := &types.Dish{
		ID: uuid.New(), Name: "Roasted Carrots", Category: "Vegetables",
		Calories: 95, Protein: 2, FirstSeen: now, LastSeen: now,
	}
	if _, err := repo.Upsert(dbc, []*types.Dish{update}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByName(dbc, "roasted carrots")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got == nil {
		t.Fatal("dish not found after upsert")
	}
	if got.ID != first.ID {
		t.Fatalf("upsert created a second row: %s vs %s", got.ID, first.ID)
	}
	if got.Calories != 95 || got.Category != "Vegetables" {
		t.Fatalf("re-fetched values did not win: %+v", got)
	}
	if !sameDay(got.FirstSeen, first.FirstSeen) {
		t.Fatalf("first_seen rewritten: %v", got.FirstSeen)
	}
}

func TestDishGetByNameMiss(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := menu.NewDishRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	got, err := repo.GetByName(dbc, "does not exist")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil on miss, got %+v", got)
	}
}

func TestDishListRecent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := menu.NewDishRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	fresh := testutil.SeedDish(t, ctx, tx, "Fresh Dish", "Entrees", 200, 20)
	stale := testutil.SeedDish(t, ctx, tx, "Stale Dish", "Entrees", 200, 20)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	testutil.SeedMenu(t, ctx, tx, today, types.MealLunch, fresh)
	testutil.SeedMenu(t, ctx, tx, today.AddDate(0, 0, -30), types.MealLunch, stale)

	got, err := repo.ListRecent(dbc, today.AddDate(0, 0, -7), 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	names := map[string]bool{}
	for _, d := range got {
		names[d.Name] = true
	}
	if !names["Fresh Dish"] {
		t.Fatal("recent dish missing")
	}
	if names["Stale Dish"] {
		t.Fatal("stale dish included")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
