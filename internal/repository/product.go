package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/VinaySavla/royanix/internal/domain/model"
)

// ProductRepository — интерфейс CRUD для таблицы products.
type ProductRepository interface {
	// List возвращает активные товары по фильтру, новые первыми.
	List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error)
	// GetByID возвращает товар по ID (в том числе неактивный).
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// Create создаёт товар. Заполняет ID, CreatedAt, UpdatedAt.
	Create(ctx context.Context, p *model.Product) error
	// Update перезаписывает все изменяемые поля товара.
	Update(ctx context.Context, p *model.Product) error
	// Delete удаляет товар.
	Delete(ctx context.Context, id string) error
	// CountByCategory возвращает количество товаров категории (включая неактивные).
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	// Counts возвращает количество активных и активных избранных товаров.
	Counts(ctx context.Context) (total, featured int, err error)
}

// productRepo — реализация ProductRepository.
type productRepo struct {
	db DBTX
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.category_id, COALESCE(c.name, ''),
		p.image, p.secondary_image, p.featured, p.active, p.size,
		p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.CategoryName,
		&p.Image, &p.SecondaryImage, &p.Featured, &p.Active, &p.Size,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepo) List(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	conditions := []string{"p.active"}
	var args []any

	if filter.FeaturedOnly {
		conditions = append(conditions, "p.featured")
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", len(args)))
	}

	query := productSelect + ` WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка товаров: %w", err)
	}
	defer rows.Close()

	var result []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return p, nil
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (name, description, category_id, image, secondary_image, featured, active, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.CategoryID, p.Image, p.SecondaryImage,
		p.Featured, p.Active, p.Size,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка создания товара")
	}
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products SET
			name = $1, description = $2, category_id = $3, image = $4,
			secondary_image = $5, featured = $6, active = $7, size = $8,
			updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.Name, p.Description, p.CategoryID, p.Image, p.SecondaryImage,
		p.Featured, p.Active, p.Size, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "ошибка обновления товара")
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта товаров категории: %w", err)
	}
	return count, nil
}

func (r *productRepo) Counts(ctx context.Context) (total, featured int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE active AND featured)
		FROM products`).Scan(&total, &featured)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка подсчёта товаров: %w", err)
	}
	return total, featured, nil
}
