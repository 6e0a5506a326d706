package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/VinaySavla/royanix/internal/domain/model"
)

// CategoryRepository — интерфейс CRUD для таблицы categories.
type CategoryRepository interface {
	// List возвращает все категории по имени с количеством активных товаров.
	List(ctx context.Context) ([]*model.Category, error)
	// GetByID возвращает категорию по ID.
	GetByID(ctx context.Context, id string) (*model.Category, error)
	// Exists проверяет наличие категории.
	Exists(ctx context.Context, id string) (bool, error)
	// Create создаёт категорию. Заполняет ID, CreatedAt, UpdatedAt.
	Create(ctx context.Context, c *model.Category) error
	// Update перезаписывает name, description, active.
	Update(ctx context.Context, c *model.Category) error
	// Delete удаляет категорию. ErrReferenced, если на неё ссылаются товары.
	Delete(ctx context.Context, id string) error
	// Count возвращает количество категорий.
	Count(ctx context.Context) (int, error)
}

// categoryRepo — реализация CategoryRepository.
type categoryRepo struct {
	db DBTX
}

// NewCategoryRepository создаёт репозиторий категорий.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepo{db: db}
}

const categorySelect = `
	SELECT c.id, c.name, c.description, c.active, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.active) AS product_count
	FROM categories c`

func scanCategory(row pgx.Row) (*model.Category, error) {
	c := &model.Category{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Active,
		&c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.Query(ctx, categorySelect+` ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка категорий: %w", err)
	}
	defer rows.Close()

	var result []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования категории: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *categoryRepo) GetByID(ctx context.Context, id string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, categorySelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения категории: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки категории: %w", err)
	}
	return exists, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	query := `
		INSERT INTO categories (name, description, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, c.Name, c.Description, c.Active).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания категории")
	}
	return nil
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	query := `
		UPDATE categories SET name = $1, description = $2, active = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query, c.Name, c.Description, c.Active, c.ID).Scan(&c.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка обновления категории")
	}
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, "ошибка удаления категории")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта категорий: %w", err)
	}
	return count, nil
}
