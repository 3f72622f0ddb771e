package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию бота и HTTP-сервера
type Config struct {
	Port             int
	TelegramToken    string
	MinPrincipal     float64
	MaxPrincipal     float64
	MaxMonths        int
	MinRate          float64
	MaxRate          float64
	SchedulePageSize int
	SessionBackend   string
	RedisAddr        string
	SessionTTL       time.Duration
	Timezone         string
	OTELEndpoint     string
	OTELServiceName  string
	LogLevel         string
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем .env файл, если он существует (игнорируем ошибку)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvInt("PORT", 8000),
		TelegramToken:    getEnvString("TELEGRAM_BOT_TOKEN", ""),
		MinPrincipal:     getEnvFloat("MIN_PRINCIPAL", 1),
		MaxPrincipal:     getEnvFloat("MAX_PRINCIPAL", 1e9),
		MaxMonths:        getEnvInt("MAX_MONTHS", 360),
		MinRate:          getEnvFloat("MIN_RATE", 1),
		MaxRate:          getEnvFloat("MAX_RATE", 100),
		SchedulePageSize: getEnvInt("SCHEDULE_PAGE_SIZE", 12),
		SessionBackend:   getEnvString("SESSION_BACKEND", "memory"),
		RedisAddr:        getEnvString("REDIS_ADDR", "localhost:6379"),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		Timezone:         getEnvString("TIMEZONE", "Europe/Moscow"),
		OTELEndpoint:     getEnvString("OTEL_ENDPOINT", ""),
		OTELServiceName:  getEnvString("OTEL_SERVICE_NAME", "loan-calculator-bot"),
		LogLevel:         getEnvString("LOG_LEVEL", "INFO"),
	}

	if cfg.SchedulePageSize < 1 {
		cfg.SchedulePageSize = 1
	}

	return cfg, nil
}

// Location возвращает часовой пояс для дат графика.
// При неизвестном имени используется UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
