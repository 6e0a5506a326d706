// Пакет config — загрузка и валидация конфигурации Royanix
// из переменных окружения (префикс RX_).
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Минимальная длина ключа подписи JWT.
const minJWTSecretLength = 16

// Config содержит все параметры конфигурации Royanix.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int `env:"RX_PORT" envDefault:"8000"`
	// Уровень логирования (debug, info, warn, error)
	LogLevelName string `env:"RX_LOG_LEVEL" envDefault:"info"`
	// LogLevel — разобранный LogLevelName
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string `env:"RX_LOG_FORMAT" envDefault:"json"`
	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration `env:"RX_HTTP_READ_TIMEOUT" envDefault:"30s"`
	HTTPWriteTimeout time.Duration `env:"RX_HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	HTTPIdleTimeout  time.Duration `env:"RX_HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// --- PostgreSQL ---

	// Хост PostgreSQL (обязательный)
	DBHost string `env:"RX_DB_HOST"`
	// Порт PostgreSQL
	DBPort int `env:"RX_DB_PORT" envDefault:"5432"`
	// Имя базы данных (обязательный)
	DBName string `env:"RX_DB_NAME"`
	// Имя пользователя PostgreSQL (обязательный)
	DBUser string `env:"RX_DB_USER"`
	// Пароль пользователя PostgreSQL (обязательный)
	DBPassword string `env:"RX_DB_PASSWORD"`
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string `env:"RX_DB_SSL_MODE" envDefault:"disable"`
	// Размер пула подключений
	DBMaxConns int32 `env:"RX_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns int32 `env:"RX_DB_MIN_CONNS" envDefault:"1"`
	// Максимальное время жизни подключения в пуле
	DBConnMaxLifetime time.Duration `env:"RX_DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// --- Аутентификация ---

	// Ключ подписи HS256 (обязательный)
	JWTSecret string `env:"RX_JWT_SECRET"`
	// Время жизни токена и cookie admin-token
	JWTTTL time.Duration `env:"RX_JWT_TTL" envDefault:"24h"`
	// Secure flag для cookie (true за HTTPS)
	CookieSecure bool `env:"RX_COOKIE_SECURE" envDefault:"false"`

	// --- Изображения ---

	// Бюджет размера изображения товара, KB
	ImageMaxSizeKB float64 `env:"RX_IMAGE_MAX_SIZE_KB" envDefault:"250"`
	// Начальное качество JPEG (0, 1]
	ImageQuality float64 `env:"RX_IMAGE_QUALITY" envDefault:"0.8"`

	// --- Кэш каталога ---

	// Максимальное количество записей
	CacheSize int `env:"RX_CACHE_SIZE" envDefault:"256"`
	// Время жизни записи
	CacheTTL time.Duration `env:"RX_CACHE_TTL" envDefault:"1m"`

	// --- topologymetrics ---

	// Имя группы в метриках зависимостей
	DephealthGroup string `env:"RX_DEPHEALTH_GROUP" envDefault:"royanix"`
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration `env:"RX_DEPHEALTH_CHECK_INTERVAL" envDefault:"15s"`

	// --- Первичный superadmin ---

	// Создаётся при старте, если в БД нет ни одной учётной записи.
	// Задаются все три значения или ни одного.
	BootstrapUsername string `env:"RX_BOOTSTRAP_USERNAME"`
	BootstrapEmail    string `env:"RX_BOOTSTRAP_EMAIL"`
	BootstrapPassword string `env:"RX_BOOTSTRAP_PASSWORD"`

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration `env:"RX_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора переменных окружения: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("RX_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	var err error
	cfg.LogLevel, err = parseLogLevel(cfg.LogLevelName)
	if err != nil {
		return nil, fmt.Errorf("RX_LOG_LEVEL: %w", err)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RX_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	required := []struct {
		key, val string
	}{
		{"RX_DB_HOST", cfg.DBHost},
		{"RX_DB_NAME", cfg.DBName},
		{"RX_DB_USER", cfg.DBUser},
		{"RX_DB_PASSWORD", cfg.DBPassword},
		{"RX_JWT_SECRET", cfg.JWTSecret},
	}
	for _, r := range required {
		if r.val == "" {
			return nil, fmt.Errorf("%s: обязательная переменная окружения не задана", r.key)
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("RX_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("RX_DB_MAX_CONNS: значение должно быть положительным, получено %d", cfg.DBMaxConns)
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		return nil, fmt.Errorf("RX_DB_MIN_CONNS: значение %d вне диапазона 0-%d", cfg.DBMinConns, cfg.DBMaxConns)
	}
	if cfg.DBConnMaxLifetime <= 0 {
		return nil, fmt.Errorf("RX_DB_CONN_MAX_LIFETIME: значение должно быть положительным, получено %s", cfg.DBConnMaxLifetime)
	}

	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("RX_JWT_SECRET: длина ключа должна быть не меньше %d символов", minJWTSecretLength)
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("RX_JWT_TTL: значение должно быть положительным, получено %s", cfg.JWTTTL)
	}

	if cfg.ImageMaxSizeKB <= 0 {
		return nil, fmt.Errorf("RX_IMAGE_MAX_SIZE_KB: значение должно быть положительным, получено %g", cfg.ImageMaxSizeKB)
	}
	if cfg.ImageQuality <= 0 || cfg.ImageQuality > 1 {
		return nil, fmt.Errorf("RX_IMAGE_QUALITY: значение %g вне диапазона (0, 1]", cfg.ImageQuality)
	}

	if cfg.CacheSize < 1 || cfg.CacheSize > 100000 {
		return nil, fmt.Errorf("RX_CACHE_SIZE: значение %d вне допустимого диапазона 1-100000", cfg.CacheSize)
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("RX_CACHE_TTL: значение должно быть положительным, получено %s", cfg.CacheTTL)
	}

	cfg.BootstrapUsername = strings.TrimSpace(cfg.BootstrapUsername)
	cfg.BootstrapEmail = strings.ToLower(strings.TrimSpace(cfg.BootstrapEmail))
	set := 0
	for _, v := range []string{cfg.BootstrapUsername, cfg.BootstrapEmail, cfg.BootstrapPassword} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return nil, fmt.Errorf("RX_BOOTSTRAP_*: задайте USERNAME, EMAIL и PASSWORD вместе или не задавайте ни одного")
	}

	return cfg, nil
}

// BootstrapEnabled — заданы ли учётные данные первичного superadmin.
func (c *Config) BootstrapEnabled() bool {
	return c.BootstrapUsername != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без пароля (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(c.DBUser),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
