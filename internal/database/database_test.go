package database_test

import (
	"context"
	"testing"

	"github.com/VinaySavla/royanix/internal/database"
	"github.com/VinaySavla/royanix/internal/database/dbtest"
)

// TestConnect проверяет подключение к PostgreSQL через pgxpool.
func TestConnect(t *testing.T) {
	cfg := dbtest.Config(t)
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg, dbtest.Logger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool.Ping() вернул ошибку: %v", err)
	}
}

// TestMigrate проверяет применение миграций.
func TestMigrate(t *testing.T) {
	cfg := dbtest.Config(t)
	logger := dbtest.Logger()

	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Migrate() вернул ошибку: %v", err)
	}

	// Повторное применение — должно быть без ошибки (ErrNoChange)
	if err := database.Migrate(cfg, logger); err != nil {
		t.Fatalf("Повторный Migrate() вернул ошибку: %v", err)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}
	defer pool.Close()

	for _, table := range []string{"admins", "categories", "products"} {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("Ошибка проверки таблицы %s: %v", table, err)
		}
		if !exists {
			t.Errorf("Таблица %s не создана", table)
		}
	}

	// Роль вне допустимого набора отклоняется на уровне схемы
	_, err = pool.Exec(ctx,
		`INSERT INTO admins (username, email, password_hash, role) VALUES ('x', 'x@example.com', 'h', 'owner')`)
	if err == nil {
		t.Error("ожидалась ошибка CHECK для роли owner")
	}
}

// TestReadinessChecker проверяет ReadinessChecker.
func TestReadinessChecker(t *testing.T) {
	cfg := dbtest.Config(t)
	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg, dbtest.Logger())
	if err != nil {
		t.Fatalf("Connect() вернул ошибку: %v", err)
	}

	checker := database.NewReadinessChecker(pool)
	status, msg := checker.CheckReady()
	if status != "ok" {
		t.Errorf("CheckReady() status = %q, message = %q; ожидали status = %q", status, msg, "ok")
	}

	pool.Close()
	if status, _ := checker.CheckReady(); status != "fail" {
		t.Errorf("CheckReady() после закрытия пула = %q, ожидали fail", status)
	}
}
