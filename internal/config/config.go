package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DBDriver    string
	DatabaseURL string

	HTTPAddr string

	DeadlineSweepMinutes int

	LogLevel string
	LogFile  string
	LogJSON  bool

	// Optional. Empty disables bearer auth on the API.
	JWTSecret string

	// Optional. Empty token disables dispatch notifications.
	TelegramToken  string
	DispatchChatID int64
}

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Info("No .env file found, relying on environment variables")
		}

		instance = load()

		if instance.DeadlineSweepMinutes <= 0 {
			logrus.Fatal("DEADLINE_SWEEP_MINUTES must be positive")
		}
		if instance.DBDriver != "sqlite" && instance.DBDriver != "postgres" {
			logrus.Fatalf("unsupported DB_DRIVER %q", instance.DBDriver)
		}
	})

	return instance
}

func load() *Config {
	cfg := &Config{
		DBDriver:             getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DeadlineSweepMinutes: int(getEnvAsInt("DEADLINE_SWEEP_MINUTES", 5)),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFile:              getEnv("LOG_FILE", "./logs/scheduler.log"),
		LogJSON:              getEnvAsBool("LOG_JSON", false),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		TelegramToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		DispatchChatID:       getEnvAsInt("DISPATCH_CHAT_ID", 0),
	}

	if cfg.DatabaseURL == "" {
		if cfg.DBDriver == "postgres" {
			cfg.DatabaseURL = postgresDSN()
		} else {
			cfg.DatabaseURL = "scheduler.db"
		}
	}

	return cfg
}

// postgresDSN builds a DSN from the DB_* variables.
func postgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "password"),
		getEnv("DB_NAME", "scheduler"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
		getEnv("DB_TIMEZONE", "UTC"),
	)
}

// NotificationsEnabled reports whether a dispatch chat is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.DispatchChatID != 0
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
