package menu

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type DishRepo interface {
	// Upsert inserts dishes or overwrites an existing row with the same name.
	// Re-fetched nutrition always wins; first_seen is kept from the original row.
	Upsert(dbc dbctx.Context, rows []*types.Dish) ([]*types.Dish, error)

	// GetByName resolves a dish by case-insensitive exact name. Returns
	// (nil, nil) when no dish matches.
	GetByName(dbc dbctx.Context, name string) (*types.Dish, error)

	// SearchByName lists dishes whose name contains the fragment, for
	// suggesting near matches.
	SearchByName(dbc dbctx.Context, fragment string, limit int) ([]*types.Dish, error)

	// ListRecent lists dishes that appeared on any menu on or after since,
	// ordered by name, capped at limit.
	ListRecent(dbc dbctx.Context, since time.Time, limit int) ([]*types.Dish, error)
}

type dishRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDishRepo(db *gorm.DB, baseLog *logger.Logger) DishRepo {
	return &dishRepo{db: db, log: baseLog.With("repo", "DishRepo")}
}

func (r *dishRepo) Upsert(dbc dbctx.Context, rows []*types.Dish) ([]*types.Dish, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Dish{}, nil
	}
	now := time.Now().UTC()
	for _, d := range rows {
		if d.FirstSeen.IsZero() {
			d.FirstSeen = now
		}
		d.LastSeen = now
	}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category", "portion_size", "serving_size", "detail_url",
				"calories", "total_fat", "saturated_fat", "trans_fat", "cholesterol",
				"sodium", "total_carbohydrate", "dietary_fiber", "total_sugars",
				"added_sugars", "protein", "vitamin_d", "calcium", "iron", "potassium",
				"ingredients", "last_seen", "updated_at",
			}),
		}).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *dishRepo) GetByName(dbc dbctx.Context, name string) (*types.Dish, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var out []*types.Dish
	if err := t.WithContext(dbc.Ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *dishRepo) SearchByName(dbc dbctx.Context, fragment string, limit int) ([]*types.Dish, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Dish
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 5
	}
	if err := t.WithContext(dbc.Ctx).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(fragment)+"%").
		Order("name").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dishRepo) ListRecent(dbc dbctx.Context, since time.Time, limit int) ([]*types.Dish, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Dish
	if limit <= 0 {
		limit = 300
	}
	if err := t.WithContext(dbc.Ctx).
		Distinct("dish.*").
		Joins("JOIN daily_menu_dish dmd ON dmd.dish_id = dish.id").
		Joins("JOIN daily_menu dm ON dm.id = dmd.daily_menu_id").
		Where("dm.date >= ?", since).
		Order("dish.name").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
