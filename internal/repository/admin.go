package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
)

// AdminRepository — интерфейс CRUD для таблицы admins.
type AdminRepository interface {
	// Create создаёт учётную запись. Заполняет ID, CreatedAt, UpdatedAt.
	Create(ctx context.Context, a *model.Admin) error
	// GetByID возвращает учётную запись по ID.
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	// GetActiveByLogin ищет активную учётную запись по username или email.
	GetActiveByLogin(ctx context.Context, login string) (*model.Admin, error)
	// List возвращает все учётные записи, новые первыми.
	List(ctx context.Context) ([]*model.Admin, error)
	// Update применяет изменения и возвращает обновлённую запись.
	Update(ctx context.Context, id string, upd *model.AdminUpdate) (*model.Admin, error)
	// TouchLastLogin записывает время успешного входа.
	TouchLastLogin(ctx context.Context, id string) error
	// Delete удаляет учётную запись.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество учётных записей.
	Count(ctx context.Context) (int, error)
	// CountActiveSuperAdmins возвращает количество активных superadmin.
	CountActiveSuperAdmins(ctx context.Context) (int, error)
}

// adminRepo — реализация AdminRepository.
type adminRepo struct {
	db DBTX
}

// NewAdminRepository создаёт репозиторий учётных записей.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepo{db: db}
}

const adminColumns = `id, username, email, password_hash, role, active, last_login_at, created_at, updated_at`

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	a := &model.Admin{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role,
		&a.Active, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *adminRepo) Create(ctx context.Context, a *model.Admin) error {
	query := `
		INSERT INTO admins (username, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.Username, a.Email, a.PasswordHash, a.Role, a.Active,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания учётной записи")
	}
	return nil
}

func (r *adminRepo) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE id = $1`, adminColumns)

	a, err := scanAdmin(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения учётной записи: %w", err)
	}
	return a, nil
}

func (r *adminRepo) GetActiveByLogin(ctx context.Context, login string) (*model.Admin, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM admins
		WHERE active AND (username = $1 OR email = lower($1))
		ORDER BY username = $1 DESC
		LIMIT 1`, adminColumns)

	a, err := scanAdmin(r.db.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска учётной записи: %w", err)
	}
	return a, nil
}

func (r *adminRepo) List(ctx context.Context) ([]*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins ORDER BY created_at DESC`, adminColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка учётных записей: %w", err)
	}
	defer rows.Close()

	var result []*model.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования учётной записи: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *adminRepo) Update(ctx context.Context, id string, upd *model.AdminUpdate) (*model.Admin, error) {
	if upd == nil || upd.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 6)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if upd.Active != nil {
		add("active", *upd.Active)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE admins SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), adminColumns)

	a, err := scanAdmin(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err, "ошибка обновления учётной записи")
	}
	return a, nil
}

func (r *adminRepo) TouchLastLogin(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE admins SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_login_at: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления учётной записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *adminRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта учётных записей: %w", err)
	}
	return count, nil
}

func (r *adminRepo) CountActiveSuperAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM admins WHERE role = $1 AND active`, rbac.RoleSuperAdmin,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта superadmin: %w", err)
	}
	return count, nil
}

// bootstrapLockID — ключ advisory lock для создания первой учётной записи.
const bootstrapLockID = 727001

// AdminBootstrapper создаёт первую учётную запись при пустой таблице admins.
type AdminBootstrapper struct {
	runner *TxRunner
}

// NewAdminBootstrapper создаёт AdminBootstrapper поверх TxRunner.
func NewAdminBootstrapper(runner *TxRunner) *AdminBootstrapper {
	return &AdminBootstrapper{runner: runner}
}

// CreateFirstAdmin создаёт учётную запись, только если таблица admins пуста.
// Транзакция берёт advisory lock, поэтому параллельный старт нескольких
// экземпляров создаёт не более одной записи. false — записи уже есть.
func (b *AdminBootstrapper) CreateFirstAdmin(ctx context.Context, a *model.Admin) (bool, error) {
	created := false
	err := b.runner.RunInTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockID); err != nil {
			return fmt.Errorf("ошибка получения advisory lock: %w", err)
		}

		repo := NewAdminRepository(tx)
		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
