// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — конфликт уникальности (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — запись уже существует")
	// ErrReferenced — запись используется другими записями (нарушение внешнего ключа).
	ErrReferenced = errors.New("запись используется другими записями")
)

// DuplicateError — нарушение уникальности конкретного поля.
// errors.Is(err, ErrConflict) == true.
type DuplicateError struct {
	// Field — имя поля в терминах API (username, email, name).
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " already exists"
}

// Is позволяет сравнивать DuplicateError с ErrConflict.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrConflict
}

// uniqueFields — соответствие имён ограничений уникальности полям API.
var uniqueFields = map[string]string{
	"admins_username_key": "username",
	"admins_email_key":    "email",
	"categories_name_key": "name",
}

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner позволяет выполнять операции в транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx выполняет fn внутри транзакции.
// При ошибке fn — транзакция откатывается.
// При успехе — коммитится.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникальности PostgreSQL.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isForeignKeyViolation проверяет, является ли ошибка нарушением внешнего ключа.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}

// mapWriteError преобразует ошибку записи в ошибку слоя репозиториев.
// Нарушение уникальности — *DuplicateError с полем из имени ограничения.
func mapWriteError(err error, op string) error {
	if isUniqueViolation(err) {
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		if field, ok := uniqueFields[pgErr.ConstraintName]; ok {
			return &DuplicateError{Field: field}
		}
		return ErrConflict
	}
	if isForeignKeyViolation(err) {
		return ErrReferenced
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
