package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config конфигурация сервера
type Config struct {
	// Сервер
	Port string `json:"port"`

	// База данных
	DatabasePath string `json:"database_path"`

	// Connection pooling
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`

	// Импорт
	UploadsDir       string `json:"uploads_dir"`
	EventsBufferSize int    `json:"events_buffer_size"`

	// Биллинг
	BillingAPIKey          string        `json:"billing_api_key"`
	BillingBaseURL         string        `json:"billing_base_url"`
	BillingRequestInterval time.Duration `json:"billing_request_interval"`
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	config := &Config{
		// Сервер
		Port: getEnv("SERVER_PORT", "9999"),

		// База данных
		DatabasePath: getEnv("DATABASE_PATH", "contacts.db"),

		// Connection pooling
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		// Импорт
		UploadsDir:       getEnv("UPLOADS_DIR", os.TempDir()),
		EventsBufferSize: getEnvInt("IMPORT_EVENTS_BUFFER_SIZE", 100),

		// Биллинг
		BillingAPIKey:          os.Getenv("BILLING_API_KEY"),
		BillingBaseURL:         getEnv("BILLING_BASE_URL", ""),
		BillingRequestInterval: getEnvDuration("BILLING_REQUEST_INTERVAL", time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes must be non-negative")
	}
	if c.BillingBaseURL != "" && c.BillingRequestInterval <= 0 {
		return fmt.Errorf("billing request interval must be positive")
	}
	return nil
}

// BillingEnabled сообщает, настроена ли синхронизация с биллингом
func (c *Config) BillingEnabled() bool {
	return c.BillingBaseURL != ""
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
