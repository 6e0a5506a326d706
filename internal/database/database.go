// Пакет database — подключение к PostgreSQL через pgxpool,
// применение миграций каталога и учётных записей (golang-migrate)
// и проверка готовности.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VinaySavla/royanix/internal/config"
)

// applicationName — имя клиента в pg_stat_activity.
const applicationName = "royanix"

// pingTimeout — ожидание первого ping и проверки готовности.
const pingTimeout = 3 * time.Second

//go:embed migrations/*.sql
var migrationsFS embed.FS

// poolConfig собирает настройки пула из конфигурации.
// Нулевые размеры пула оставляют значения pgxpool по умолчанию.
func poolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns > 0 {
		poolCfg.MinConns = min(cfg.DBMinConns, poolCfg.MaxConns)
	}
	if cfg.DBConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.DBConnMaxLifetime
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	return poolCfg, nil
}

// Connect создаёт пул подключений к PostgreSQL и проверяет его ping.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула подключений: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка подключения к PostgreSQL: %w", err)
	}

	logger.Info("Подключение к PostgreSQL установлено",
		slog.String("host", cfg.DBHost),
		slog.Int("port", cfg.DBPort),
		slog.String("database", cfg.DBName),
		slog.Int("max_conns", int(poolCfg.MaxConns)),
		slog.Int("min_conns", int(poolCfg.MinConns)),
	)

	return pool, nil
}

// migrateLogger передаёт сообщения golang-migrate в slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

// Migrate применяет встроенные миграции схемы admins/categories/products.
// Повторный запуск без новых миграций не является ошибкой.
func Migrate(cfg *config.Config, logger *slog.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("ошибка создания источника миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации миграций: %w", err)
	}
	defer m.Close()
	m.Log = migrateLogger{logger: logger.With(slog.String("component", "migrate"))}

	from, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if from.dirty {
		return fmt.Errorf("схема в состоянии dirty на версии %d, требуется ручное исправление", from.version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	to, err := schemaVersion(m)
	if err != nil {
		return err
	}
	logger.Info("Миграции применены",
		slog.Uint64("from_version", uint64(from.version)),
		slog.Uint64("version", uint64(to.version)),
		slog.Bool("changed", from.version != to.version),
	)
	return nil
}

type migrationState struct {
	version uint
	dirty   bool
}

// schemaVersion возвращает текущую версию схемы. Пустая БД — версия 0.
func schemaVersion(m *migrate.Migrate) (migrationState, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return migrationState{}, nil
	}
	if err != nil {
		return migrationState{}, fmt.Errorf("ошибка чтения версии схемы: %w", err)
	}
	return migrationState{version: version, dirty: dirty}, nil
}

// ReadinessChecker — проверка готовности PostgreSQL для health endpoint.
// Реализует интерфейс handlers.ReadinessChecker.
type ReadinessChecker struct {
	pool *pgxpool.Pool
}

// NewReadinessChecker создаёт проверку готовности PostgreSQL.
func NewReadinessChecker(pool *pgxpool.Pool) *ReadinessChecker {
	return &ReadinessChecker{pool: pool}
}

// CheckReady пингует PostgreSQL и сообщает загрузку пула.
func (c *ReadinessChecker) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := c.pool.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("PostgreSQL недоступен: %v", err)
	}
	stat := c.pool.Stat()
	return "ok", fmt.Sprintf("подключение активно, занято %d из %d", stat.AcquiredConns(), stat.MaxConns())
}
