package plans

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type MealPlanRepo interface {
	// CreatePendingSuperseding atomically marks any pending plan for the same
	// (user, daily menu) slot superseded and inserts the new pending plan with
	// its items. At most one pending plan per slot survives; a concurrent
	// insert racing on the partial unique index is resolved by superseding the
	// earlier winner and retrying once.
	CreatePendingSuperseding(dbc dbctx.Context, row *types.MealPlan) (*types.MealPlan, []uuid.UUID, error)

	// GetByID loads a plan with items, dishes, and menu preloaded. (nil, nil)
	// when absent.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MealPlan, error)

	// GetLatestBySlot returns the newest non-superseded plan for the slot, or
	// (nil, nil).
	GetLatestBySlot(dbc dbctx.Context, userID, dailyMenuID uuid.UUID) (*types.MealPlan, error)

	// ListOpen lists pending/approved plans whose menu date is on or before
	// the given date, menu preloaded, for expiry sweeps.
	ListOpen(dbc dbctx.Context, onOrBefore time.Time) ([]*types.MealPlan, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type mealPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMealPlanRepo(db *gorm.DB, baseLog *logger.Logger) MealPlanRepo {
	return &mealPlanRepo{db: db, log: baseLog.With("repo", "MealPlanRepo")}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite driver reports constraint failures as plain errors; gorm maps
	// them onto ErrDuplicatedKey when translation is enabled.
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *mealPlanRepo) CreatePendingSuperseding(dbc dbctx.Context, row *types.MealPlan) (*types.MealPlan, []uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row.Status = types.PlanStatusPending

	var superseded []uuid.UUID
	attempt := func() error {
		superseded = superseded[:0]
		return t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
			var prior []*types.MealPlan
			if err := tx.
				Where("user_id = ? AND daily_menu_id = ? AND status = ?",
					row.UserID, row.DailyMenuID, types.PlanStatusPending).
				Find(&prior).Error; err != nil {
				return err
			}
			for _, p := range prior {
				if err := tx.Model(&types.MealPlan{}).
					Where("id = ?", p.ID).
					Update("status", types.PlanStatusSuperseded).Error; err != nil {
					return err
				}
				superseded = append(superseded, p.ID)
			}
			return tx.Create(row).Error
		})
	}

	err := attempt()
	if err != nil && isUniqueViolation(err) {
		// Lost a race: another pending plan landed between our supersede and
		// insert. Supersede it and try again; the second failure propagates.
		r.log.Warn("Pending plan slot conflict, retrying supersede",
			"user_id", row.UserID, "daily_menu_id", row.DailyMenuID)
		row.ID = uuid.New()
		err = attempt()
	}
	if err != nil {
		return nil, nil, err
	}
	return row, superseded, nil
}

func (r *mealPlanRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MealPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.MealPlan
	if err := t.WithContext(dbc.Ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Items.Dish").
		Preload("DailyMenu").
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mealPlanRepo) GetLatestBySlot(dbc dbctx.Context, userID, dailyMenuID uuid.UUID) (*types.MealPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.MealPlan
	if err := t.WithContext(dbc.Ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Items.Dish").
		Where("user_id = ? AND daily_menu_id = ? AND status <> ?",
			userID, dailyMenuID, types.PlanStatusSuperseded).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mealPlanRepo) ListOpen(dbc dbctx.Context, onOrBefore time.Time) ([]*types.MealPlan, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.MealPlan
	if err := t.WithContext(dbc.Ctx).
		Preload("DailyMenu").
		Joins("JOIN daily_menu dm ON dm.id = meal_plan.daily_menu_id").
		Where("meal_plan.status IN ?", []string{types.PlanStatusPending, types.PlanStatusApproved}).
		Where("dm.date <= ?", onOrBefore).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mealPlanRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.MealPlan{}).
		Where("id = ?", id).
		Updates(updates).Error
}
