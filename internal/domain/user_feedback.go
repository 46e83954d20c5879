package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rating scale bounds. Ratings outside the scale are clamped, never rejected.
const (
	RatingNeverAgain = -2
	RatingBad        = -1
	RatingNeutral    = 0
	RatingGood       = 1
	RatingLove       = 2
)

// ClampRating forces a rating into the [-2, 2] scale.
func ClampRating(rating int) int {
	if rating < RatingNeverAgain {
		return RatingNeverAgain
	}
	if rating > RatingLove {
		return RatingLove
	}
	return rating
}

// UserFeedback is one append-only rating event. Either DishID or Category may
// identify the subject; ambiguous extractions are stored with rating 0 and the
// ambiguous flag set so the comment stays available for audit.
type UserFeedback struct {
	ID     uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *UserProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	DishID   *uuid.UUID `gorm:"type:uuid;index" json:"dish_id,omitempty"`
	Dish     *Dish      `gorm:"constraint:OnDelete:CASCADE;foreignKey:DishID;references:ID" json:"dish,omitempty"`
	Category string     `gorm:"column:category;index" json:"category"`

	Rating    int            `gorm:"not null;index;column:rating" json:"rating"`
	Comment   string         `gorm:"type:text;column:comment" json:"comment"`
	Ambiguous bool           `gorm:"not null;default:false;column:ambiguous" json:"ambiguous"`
	Raw       datatypes.JSON `gorm:"type:jsonb;column:raw" json:"raw,omitempty"`

	FeedbackDate time.Time `gorm:"not null;index;column:feedback_date" json:"feedback_date"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (UserFeedback) TableName() string { return "user_feedback" }
