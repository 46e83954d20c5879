package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mealwise/mealwise-backend/internal/pkg/logger"
	"github.com/mealwise/mealwise-backend/internal/utils"
)

type Config struct {
	DBDriver  string
	DBDSN     string
	RedisAddr string

	Timezone *time.Location

	PreferenceTopN       int
	PreferenceWindowDays int
	RecentDishDays       int
	RecentDishLimit      int
	BatchConcurrency     int
}

// fileOverlay is the optional YAML config file (CONFIG_FILE). Values set here
// become the defaults; environment variables still win.
type fileOverlay struct {
	Timezone   string `yaml:"timezone"`
	Preference struct {
		TopN       int `yaml:"top_n"`
		WindowDays int `yaml:"window_days"`
	} `yaml:"preference"`
	RecentDishes struct {
		Days  int `yaml:"days"`
		Limit int `yaml:"limit"`
	} `yaml:"recent_dishes"`
	Batch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`
}

func loadOverlay(log *logger.Logger) fileOverlay {
	var overlay fileOverlay
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return overlay
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Config file unreadable, ignoring", "path", path, "error", err.Error())
		return overlay
	}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		log.Warn("Config file invalid, ignoring", "path", path, "error", err.Error())
		return fileOverlay{}
	}
	log.Info("Loaded config overlay", "path", path)
	return overlay
}

func LoadConfig(log *logger.Logger) (Config, error) {
	overlay := loadOverlay(log)

	orInt := func(v, fallback int) int {
		if v > 0 {
			return v
		}
		return fallback
	}

	tzName := utils.GetEnv("TIMEZONE", orStr(overlay.Timezone, "UTC"), log)
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	return Config{
		DBDriver:  utils.GetEnv("DB_DRIVER", "postgres", log),
		DBDSN:     utils.GetEnv("DB_DSN", "", log),
		RedisAddr: utils.GetEnv("REDIS_ADDR", "", log),
		Timezone:  loc,

		PreferenceTopN:       utils.GetEnvAsInt("PREFERENCE_TOP_N", orInt(overlay.Preference.TopN, 5), log),
		PreferenceWindowDays: utils.GetEnvAsInt("PREFERENCE_WINDOW_DAYS", orInt(overlay.Preference.WindowDays, 365), log),
		RecentDishDays:       utils.GetEnvAsInt("RECENT_DISH_DAYS", orInt(overlay.RecentDishes.Days, 7), log),
		RecentDishLimit:      utils.GetEnvAsInt("RECENT_DISH_LIMIT", orInt(overlay.RecentDishes.Limit, 300), log),
		BatchConcurrency:     utils.GetEnvAsInt("BATCH_CONCURRENCY", orInt(overlay.Batch.Concurrency, 4), log),
	}, nil
}

func orStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
