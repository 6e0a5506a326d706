// Точка входа Royanix — каталог товаров и backoffice администраторов.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой и API handlers, при необходимости создаёт первого
// superadmin, запускает topologymetrics и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/VinaySavla/royanix/internal/api/handlers"
	"github.com/VinaySavla/royanix/internal/api/middleware"
	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/config"
	"github.com/VinaySavla/royanix/internal/database"
	"github.com/VinaySavla/royanix/internal/imageutil"
	"github.com/VinaySavla/royanix/internal/repository"
	"github.com/VinaySavla/royanix/internal/server"
	"github.com/VinaySavla/royanix/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Royanix запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics.
	// Проверка здоровья идёт через существующий пул соединений.
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	adminRepo := repository.NewAdminRepository(pool)
	bootstrapper := repository.NewAdminBootstrapper(repository.NewTxRunner(pool))
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	// 6. Services
	adminUsersSvc := service.NewAdminUserService(adminRepo, bootstrapper, logger)
	authSvc := service.NewAuthService(adminRepo, logger)
	catalogSvc := service.NewCatalogService(productRepo, categoryRepo, service.CatalogConfig{
		MaxImageSizeKB: cfg.ImageMaxSizeKB,
		CacheSize:      cfg.CacheSize,
		CacheTTL:       cfg.CacheTTL,
	}, logger)
	statsSvc := service.NewStatsService(productRepo, categoryRepo)
	imageSvc := service.NewImageService(imageutil.Options{
		MaxSizeKB:      cfg.ImageMaxSizeKB,
		InitialQuality: cfg.ImageQuality,
	}, logger)

	// 7. Первый superadmin (только при пустой таблице admins)
	if cfg.BootstrapEnabled() {
		created, err := adminUsersSvc.Bootstrap(ctx, cfg.BootstrapUsername, cfg.BootstrapEmail, cfg.BootstrapPassword)
		if err != nil {
			logger.Error("Ошибка создания первого superadmin", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if !created {
			logger.Info("Учётные записи уже существуют, bootstrap пропущен")
		}
	}

	// 8. Сессии и JWT middleware
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	sessions := auth.NewSessionManager(tokens, cfg.CookieSecure)
	jwtAuth := middleware.NewJWTAuth(sessions, logger)

	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))

	// 9. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"royanix",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
		dephealthSvc = nil
	} else {
		healthHandler.SetDependencyReporter(dephealthSvc)
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		sessions,
		handlers.Services{
			Auth:       authSvc,
			AdminUsers: adminUsersSvc,
			Catalog:    catalogSvc,
			Stats:      statsSvc,
			Images:     imageSvc,
		},
		logger,
	)

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth)
	runErr := srv.Run()

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	if runErr != nil {
		logger.Error("Ошибка сервера", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
	logger.Info("Royanix остановлен")
}
