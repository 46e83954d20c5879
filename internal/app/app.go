package app

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mealwise/mealwise-backend/internal/clients/openai"
	"github.com/mealwise/mealwise-backend/internal/clients/redis"
	"github.com/mealwise/mealwise-backend/internal/data/repos"
	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
	"github.com/mealwise/mealwise-backend/internal/services"
)

type Repos struct {
	Dish         repos.DishRepo
	DailyMenu    repos.DailyMenuRepo
	UserProfile  repos.UserProfileRepo
	MealPlan     repos.MealPlanRepo
	MealHistory  repos.MealHistoryRepo
	UserFeedback repos.UserFeedbackRepo
}

type Services struct {
	Preference services.PreferenceService
	Planner    services.PlannerService
	Lifecycle  services.LifecycleService
	MealLog    services.MealLogService
	Feedback   services.FeedbackService
	Batch      services.BatchService
}

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services

	slotLock *redis.SlotLock
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	db, err := OpenDB(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if err := repos.Migrate(db); err != nil {
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	reposet := wireRepos(db, log)

	var locker services.SlotLocker = services.NopSlotLocker{}
	var slotLock *redis.SlotLock
	if cfg.RedisAddr != "" {
		slotLock, err = redis.NewSlotLock(log)
		if err != nil {
			log.Warn("Redis unavailable, slot locking disabled", "error", err.Error())
		} else {
			locker = slotLock
		}
	}

	ai, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai: %w", err)
	}
	plannerAI := services.NewPlannerAI(ai, log)

	serviceset := wireServices(db, log, cfg, reposet, plannerAI, locker)

	return &App{
		Log:      log,
		DB:       db,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		slotLock: slotLock,
	}, nil
}

// OpenDB opens postgres by default, sqlite when DB_DRIVER=sqlite.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("missing DB_DSN")
	}

	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(cfg.DBDSN), gormCfg)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	log.Info("Database connected", "driver", cfg.DBDriver)
	return db, nil
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Dish:         repos.NewDishRepo(db, log),
		DailyMenu:    repos.NewDailyMenuRepo(db, log),
		UserProfile:  repos.NewUserProfileRepo(db, log),
		MealPlan:     repos.NewMealPlanRepo(db, log),
		MealHistory:  repos.NewMealHistoryRepo(db, log),
		UserFeedback: repos.NewUserFeedbackRepo(db, log),
	}
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	r Repos,
	ai services.PlannerAI,
	locker services.SlotLocker,
) Services {
	prefs := services.NewPreferenceService(r.UserFeedback, cfg.PreferenceWindowDays, log)
	planner := services.NewPlannerService(
		r.UserProfile, r.DailyMenu, r.MealPlan,
		prefs, ai, locker, cfg.PreferenceTopN, log,
	)
	return Services{
		Preference: prefs,
		Planner:    planner,
		Lifecycle:  services.NewLifecycleService(db, r.MealPlan, r.MealHistory, log),
		MealLog:    services.NewMealLogService(r.Dish, r.DailyMenu, r.MealHistory, ai, cfg.RecentDishDays, cfg.RecentDishLimit, log),
		Feedback:   services.NewFeedbackService(r.Dish, r.UserFeedback, r.UserProfile, ai, cfg.RecentDishDays, cfg.RecentDishLimit, log),
		Batch:      services.NewBatchService(r.UserProfile, r.DailyMenu, r.MealPlan, planner, cfg.BatchConcurrency, log),
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.slotLock != nil {
		_ = a.slotLock.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
