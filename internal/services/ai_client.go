package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
)

// OpenAIClient is the slice of the OpenAI client this package consumes.
// Satisfied by clients/openai.Client and by test fakes.
type OpenAIClient interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// PlanItemDraft is one item as proposed by the model. Quantity is kept as the
// model's free-form string ("2", "1.5 cups"); the planner parses it.
type PlanItemDraft struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// PlanDraft is the model's proposed meal plan before validation.
type PlanDraft struct {
	Items     []PlanItemDraft `json:"meals"`
	Rationale string          `json:"rationale"`
}

// LogItemDraft is one dish mention parsed out of a free-text meal log.
type LogItemDraft struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// LogDraft is the parsed form of a free-text meal log.
type LogDraft struct {
	MealType string         `json:"meal_type"`
	Items    []LogItemDraft `json:"items"`
}

// RatedDishDraft is one dish-level rating extracted from feedback text.
type RatedDishDraft struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Reason string `json:"reason"`
}

// RatingDraft is the structured result of feedback extraction. Confident is
// false when the model could not map the text to a clear rating.
type RatingDraft struct {
	Dishes             []RatedDishDraft `json:"dishes"`
	GeneralPreferences string           `json:"general_preferences"`
	Confident          bool             `json:"confident"`
}

// PlanRequest carries everything the prompt needs to propose a plan.
type PlanRequest struct {
	Profile      *types.UserProfile
	Menu         *types.DailyMenu
	Preferred    []DishScore
	Avoided      []DishScore
	Date         time.Time
	MealType     string
	InvalidItems []string // set on the strict retry only
}

// LogRequest carries a free-text meal log plus the dish names the model may
// reference.
type LogRequest struct {
	Text         string
	RecentDishes []string
	MealTypeHint string
}

// FeedbackRequest carries free-form feedback plus candidate dish names.
// SubjectHint, when set, names what the feedback likely concerns (a dish or a
// plan the user was just shown) so the extractor can resolve bare pronouns.
type FeedbackRequest struct {
	Text         string
	RecentDishes []string
	SubjectHint  string
}

// PlannerAI is the model boundary of the engine. Implementations format the
// prompts and parse the structured replies; callers validate the drafts.
type PlannerAI interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (*PlanDraft, error)
	ParseMealLog(ctx context.Context, req LogRequest) (*LogDraft, error)
	ExtractFeedback(ctx context.Context, req FeedbackRequest) (*RatingDraft, error)
}

type plannerAI struct {
	ai  OpenAIClient
	log *logger.Logger
}

func NewPlannerAI(ai OpenAIClient, baseLog *logger.Logger) PlannerAI {
	return &plannerAI{ai: ai, log: baseLog.With("service", "PlannerAI")}
}

func (p *plannerAI) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanDraft, error) {
	system, user := buildPlanPrompt(req)
	obj, err := p.ai.GenerateJSON(ctx, system, user, "meal_plan", planSchema())
	if err != nil {
		return nil, err
	}
	var draft PlanDraft
	if err := decodeDraft(obj, &draft); err != nil {
		return nil, fmt.Errorf("plan draft: %w", err)
	}
	return &draft, nil
}

func (p *plannerAI) ParseMealLog(ctx context.Context, req LogRequest) (*LogDraft, error) {
	system, user := buildMealLogPrompt(req)
	obj, err := p.ai.GenerateJSON(ctx, system, user, "meal_log", mealLogSchema())
	if err != nil {
		return nil, err
	}
	var draft LogDraft
	if err := decodeDraft(obj, &draft); err != nil {
		return nil, fmt.Errorf("meal log draft: %w", err)
	}
	return &draft, nil
}

func (p *plannerAI) ExtractFeedback(ctx context.Context, req FeedbackRequest) (*RatingDraft, error) {
	system, user := buildFeedbackPrompt(req)
	obj, err := p.ai.GenerateJSON(ctx, system, user, "dish_feedback", feedbackSchema())
	if err != nil {
		return nil, err
	}
	var draft RatingDraft
	if err := decodeDraft(obj, &draft); err != nil {
		return nil, fmt.Errorf("feedback draft: %w", err)
	}
	return &draft, nil
}

// decodeDraft round-trips a generic JSON object into a typed draft.
func decodeDraft(obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
