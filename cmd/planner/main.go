package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mealwise/mealwise-backend/internal/app"
	types "github.com/mealwise/mealwise-backend/internal/domain"
	"github.com/mealwise/mealwise-backend/internal/pkg/dbctx"
	"github.com/mealwise/mealwise-backend/internal/services"
)

const usage = `usage: planner <command> [flags]

commands:
  plan      -user <uuid>|-chat <id> [-date YYYY-MM-DD -meal breakfast|lunch|dinner]
  batch     -date YYYY-MM-DD -meal breakfast|lunch|dinner
  expire
  log       -user <uuid>|-chat <id> -text "<what was eaten>"
  feedback  -user <uuid>|-chat <id> -text "<opinion>" [-about "<dish>"]
  approve   -plan <uuid>
  complete  -plan <uuid>
  sent      -plan <uuid>
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	if err := run(ctx, application, command, args); err != nil {
		application.Log.Error("Command failed", "command", command, "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "plan":
		return runPlan(ctx, a, args)
	case "batch":
		return runBatch(ctx, a, args)
	case "expire":
		return runExpire(ctx, a)
	case "log":
		return runLog(ctx, a, args)
	case "feedback":
		return runFeedback(ctx, a, args)
	case "approve", "complete", "sent":
		return runTransition(ctx, a, command, args)
	default:
		fmt.Print(usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runPlan(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	userFlag := fs.String("user", "", "user profile id")
	chatFlag := fs.Int64("chat", 0, "chat id, alternative to -user")
	dateFlag := fs.String("date", "", "slot date (YYYY-MM-DD), defaults to the current slot")
	mealFlag := fs.String("meal", "", "meal type, defaults to the current slot")
	_ = fs.Parse(args)

	userID, err := resolveUser(ctx, a, *userFlag, *chatFlag)
	if err != nil {
		return err
	}

	var rec *services.PlanRecord
	if *dateFlag == "" && *mealFlag == "" {
		rec, err = a.Services.Planner.GenerateNow(ctx, userID, time.Now().In(a.Cfg.Timezone))
	} else {
		slot, slotErr := parseSlot(*dateFlag, *mealFlag)
		if slotErr != nil {
			return slotErr
		}
		rec, err = a.Services.Planner.Generate(ctx, userID, slot)
	}
	if err != nil {
		return err
	}
	fmt.Println(services.FormatPlanText(rec))
	fmt.Printf("plan id: %s\n", rec.PlanID)
	return nil
}

func runBatch(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	dateFlag := fs.String("date", "", "slot date (YYYY-MM-DD)")
	mealFlag := fs.String("meal", "", "meal type")
	_ = fs.Parse(args)

	slot, err := parseSlot(*dateFlag, *mealFlag)
	if err != nil {
		return err
	}
	result, err := a.Services.Batch.GenerateForMeal(ctx, slot)
	if err != nil {
		return err
	}
	fmt.Printf("generated=%d skipped=%d failures=%d\n",
		result.Generated, result.Skipped, len(result.Failures))
	for _, f := range result.Failures {
		fmt.Printf("  %s: %s\n", f.UserID, f.Reason)
	}
	return nil
}

func runExpire(ctx context.Context, a *app.App) error {
	n, err := a.Services.Lifecycle.ExpireElapsed(ctx, time.Now(), a.Cfg.Timezone)
	if err != nil {
		return err
	}
	fmt.Printf("expired %d plans\n", n)
	return nil
}

func runLog(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	userFlag := fs.String("user", "", "user profile id")
	chatFlag := fs.Int64("chat", 0, "chat id, alternative to -user")
	textFlag := fs.String("text", "", "free-text meal description")
	_ = fs.Parse(args)

	userID, err := resolveUser(ctx, a, *userFlag, *chatFlag)
	if err != nil {
		return err
	}
	if *textFlag == "" {
		return fmt.Errorf("-text required")
	}

	result, err := a.Services.MealLog.Log(ctx, userID, *textFlag, time.Now().In(a.Cfg.Timezone))
	if err != nil {
		return err
	}
	for _, item := range result.Logged {
		fmt.Printf("logged: %s x%.2g\n", item.Dish.Name, item.Quantity)
	}
	for _, u := range result.Unresolved {
		fmt.Printf("unmatched: %q", u.Mentioned)
		if len(u.Nearest) > 0 {
			fmt.Printf(" (did you mean %v?)", u.Nearest)
		}
		fmt.Println()
	}
	fmt.Printf("totals: %.0f kcal, %.0fg protein\n", result.Totals.Calories, result.Totals.Protein)
	return nil
}

func runFeedback(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	userFlag := fs.String("user", "", "user profile id")
	chatFlag := fs.Int64("chat", 0, "chat id, alternative to -user")
	textFlag := fs.String("text", "", "free-form feedback")
	aboutFlag := fs.String("about", "", "what the feedback concerns, when the text does not say")
	_ = fs.Parse(args)

	userID, err := resolveUser(ctx, a, *userFlag, *chatFlag)
	if err != nil {
		return err
	}
	if *textFlag == "" {
		return fmt.Errorf("-text required")
	}

	result, err := a.Services.Feedback.Ingest(ctx, userID, *textFlag, *aboutFlag, time.Now())
	if err != nil {
		return err
	}
	if result.Ambiguous {
		fmt.Println("feedback recorded as ambiguous (no clear rating)")
	} else {
		fmt.Printf("recorded %d ratings\n", len(result.Recorded))
	}
	if result.GeneralPreferences != "" {
		fmt.Printf("noted preference: %s\n", result.GeneralPreferences)
	}
	return nil
}

func runTransition(ctx context.Context, a *app.App, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	planFlag := fs.String("plan", "", "meal plan id")
	_ = fs.Parse(args)

	planID, err := uuid.Parse(*planFlag)
	if err != nil {
		return fmt.Errorf("invalid -plan: %w", err)
	}

	var rec *services.PlanRecord
	switch command {
	case "approve":
		rec, err = a.Services.Lifecycle.Approve(ctx, planID)
	case "complete":
		rec, err = a.Services.Lifecycle.Complete(ctx, planID)
	case "sent":
		rec, err = a.Services.Lifecycle.MarkSent(ctx, planID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("plan %s is now %s\n", rec.PlanID, rec.Status)
	return nil
}

// resolveUser accepts either a profile uuid or a chat id.
func resolveUser(ctx context.Context, a *app.App, userStr string, chatID int64) (uuid.UUID, error) {
	if userStr != "" {
		id, err := uuid.Parse(userStr)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid -user: %w", err)
		}
		return id, nil
	}
	if chatID != 0 {
		profile, err := a.Repos.UserProfile.GetByChatID(dbctx.Context{Ctx: ctx}, chatID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("lookup chat %d: %w", chatID, err)
		}
		if profile == nil {
			return uuid.Nil, fmt.Errorf("no profile for chat %d", chatID)
		}
		return profile.ID, nil
	}
	return uuid.Nil, fmt.Errorf("-user or -chat required")
}

func parseSlot(dateStr, meal string) (services.MealSlot, error) {
	if !types.ValidMealType(meal) {
		return services.MealSlot{}, fmt.Errorf("invalid -meal %q", meal)
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return services.MealSlot{}, fmt.Errorf("invalid -date: %w", err)
	}
	return services.MealSlot{Date: services.DateOf(date), MealType: meal}, nil
}
