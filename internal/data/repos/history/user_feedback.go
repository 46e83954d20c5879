package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

type UserFeedbackRepo interface {
	// Create appends one feedback event. Feedback is never mutated afterward.
	Create(dbc dbctx.Context, row *types.UserFeedback) (*types.UserFeedback, error)

	// ListByUserSince lists a user's feedback recorded on or after since,
	// newest first, dishes preloaded. The preference model reads through this.
	ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.UserFeedback, error)
}

type userFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) UserFeedbackRepo {
	return &userFeedbackRepo{db: db, log: baseLog.With("repo", "UserFeedbackRepo")}
}

func (r *userFeedbackRepo) Create(dbc dbctx.Context, row *types.UserFeedback) (*types.UserFeedback, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row.Rating = types.ClampRating(row.Rating)
	if row.FeedbackDate.IsZero() {
		row.FeedbackDate = time.Now().UTC()
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *userFeedbackRepo) ListByUserSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.UserFeedback, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.UserFeedback
	if err := t.WithContext(dbc.Ctx).
		Preload("Dish").
		Where("user_id = ? AND feedback_date >= ?", userID, since).
		Order("feedback_date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
