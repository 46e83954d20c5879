package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinels for errors.Is checks across the engine.
var (
	// ErrNoMenuAvailable: the slot has zero dishes. Not retried.
	ErrNoMenuAvailable = errors.New("no menu available")
	// ErrPlanGenerationFailed: generation or validation failed after the one
	// allowed retry. No plan is persisted.
	ErrPlanGenerationFailed = errors.New("plan generation failed")
	// ErrInvalidTransition: a lifecycle transition that is neither allowed nor
	// a re-entrant repeat of the current state.
	ErrInvalidTransition = errors.New("invalid plan transition")
	// ErrProfileNotFound: an operation referenced an unknown user.
	ErrProfileNotFound = errors.New("user profile not found")
)

// NoMenuAvailableError identifies the empty slot so the delivery layer can
// name it in a message.
type NoMenuAvailableError struct {
	Date     time.Time
	MealType string
}

func (e *NoMenuAvailableError) Error() string {
	return fmt.Sprintf("no %s menu available for %s", e.MealType, e.Date.Format("2006-01-02"))
}

func (e *NoMenuAvailableError) Unwrap() error { return ErrNoMenuAvailable }

// PlanGenerationFailedError carries the slot and the last validation reason.
type PlanGenerationFailedError struct {
	UserID   uuid.UUID
	Date     time.Time
	MealType string
	Reason   string
}

func (e *PlanGenerationFailedError) Error() string {
	return fmt.Sprintf("plan generation failed for %s %s (user %s): %s",
		e.MealType, e.Date.Format("2006-01-02"), e.UserID, e.Reason)
}

func (e *PlanGenerationFailedError) Unwrap() error { return ErrPlanGenerationFailed }

// InvalidTransitionError names the rejected transition.
type InvalidTransitionError struct {
	PlanID uuid.UUID
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("plan %s: cannot transition %s -> %s", e.PlanID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// UnresolvedLogItem reports a free-text item that matched no catalog dish.
// It accompanies partial successes; it is not an error by itself.
type UnresolvedLogItem struct {
	Mentioned string   `json:"mentioned"`
	Quantity  float64  `json:"quantity"`
	Nearest   []string `json:"nearest,omitempty"`
}
