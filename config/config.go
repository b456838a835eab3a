package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       DBConfig
	Telegram TelegramConfig
	Backend  BackendConfig
	Cache    CacheConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string // empty disables order history
}

type TelegramConfig struct {
	Token string
}

type BackendConfig struct {
	BaseURL      string
	DefaultTable string // table id used when a deep link carries none
}

type CacheConfig struct {
	RedisURL string // empty disables the menu cache
	MenuTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	ttlSec, _ := strconv.Atoi(getEnv("MENU_CACHE_TTL", "60"))

	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", ""),
		},
		Telegram: TelegramConfig{
			Token: getEnv("TOKEN", ""),
		},
		Backend: BackendConfig{
			BaseURL:      getEnv("BACKEND_URL", "http://localhost:8000"),
			DefaultTable: getEnv("DEFAULT_TABLE", "1"),
		},
		Cache: CacheConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			MenuTTL:  time.Duration(ttlSec) * time.Second,
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
