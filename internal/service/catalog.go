// catalog.go — товары и категории каталога.
// Чтения идут через LRU-кэш, любая запись очищает его целиком.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/imageutil"
	"github.com/VinaySavla/royanix/internal/repository"
)

// Сообщения об ошибках каталога.
const (
	msgProductNotFound       = "Product not found"
	msgProductNameRequired   = "Product name is required"
	msgProductDescRequired   = "Product description is required"
	msgCategoryRequired      = "Category is required"
	msgCategoryNotFound      = "Category not found"
	msgCategoryNameRequired  = "Category name is required"
	msgCategoryExists        = "Category already exists"
	msgCategoryNameExists    = "Category name already exists"
	msgCategoryInUseFmt      = "Cannot delete category. %d products are using this category."
	msgCategoryInUseGeneric  = "Cannot delete category. Products are using this category."
	categoriesCacheKey       = "all"
	productsCacheKeyTemplate = "featured=%t;category=%s"
)

// ProductInput — поля товара из запроса. nil — поле не передано.
type ProductInput struct {
	Name           *string
	Description    *string
	CategoryID     *string
	Image          *string
	SecondaryImage *string
	Featured       *bool
	Active         *bool
	Size           *string
}

// CategoryInput — поля категории из запроса. nil — поле не передано.
type CategoryInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// CatalogConfig — параметры CatalogService.
type CatalogConfig struct {
	// MaxImageSizeKB — максимальный размер изображения товара.
	MaxImageSizeKB float64
	// CacheSize — максимальное количество записей в каждом кэше.
	CacheSize int
	// CacheTTL — время жизни записи кэша.
	CacheTTL time.Duration
}

// CatalogService — сервис товаров и категорий.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository

	productLists *Cache[[]*model.Product]
	productByID  *Cache[*model.Product]
	categoryList *Cache[[]*model.Category]

	maxImageSizeKB float64
	logger         *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	cfg CatalogConfig,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products:       products,
		categories:     categories,
		productLists:   NewCache[[]*model.Product]("product_lists", cfg.CacheSize, cfg.CacheTTL),
		productByID:    NewCache[*model.Product]("products", cfg.CacheSize, cfg.CacheTTL),
		categoryList:   NewCache[[]*model.Category]("categories", 1, cfg.CacheTTL),
		maxImageSizeKB: cfg.MaxImageSizeKB,
		logger:         logger.With(slog.String("component", "catalog_service")),
	}
}

// --- Товары ---

// ListProducts возвращает активные товары по фильтру, новые первыми.
func (s *CatalogService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]*model.Product, error) {
	// Несуществующий формат ID категории не может совпасть ни с одним товаром.
	if filter.CategoryID != "" && uuid.Validate(filter.CategoryID) != nil {
		return []*model.Product{}, nil
	}

	key := fmt.Sprintf(productsCacheKeyTemplate, filter.FeaturedOnly, filter.CategoryID)
	if cached, ok := s.productLists.Get(key); ok {
		return cached, nil
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("получение товаров: %w", err)
	}
	if products == nil {
		products = []*model.Product{}
	}
	s.productLists.Set(key, products)
	return products, nil
}

// GetProduct возвращает товар по ID, в том числе неактивный.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if cached, ok := s.productByID.Get(id); ok {
		return cached, nil
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgProductNotFound)
		}
		return nil, fmt.Errorf("получение товара: %w", err)
	}
	s.productByID.Set(id, p)
	return p, nil
}

// CreateProduct создаёт товар. featured по умолчанию false, active — true.
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	p := &model.Product{Active: true}
	applyProductInput(p, in)

	if err := s.validateProduct(ctx, p); err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, s.mapProductWriteError(err)
	}
	s.invalidate()

	s.logger.Info("Товар создан",
		slog.String("id", p.ID),
		slog.String("name", p.Name),
	)
	return s.reloadProduct(ctx, p)
}

// UpdateProduct применяет переданные поля к товару.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgProductNotFound)
		}
		return nil, fmt.Errorf("получение товара: %w", err)
	}

	p := *current
	applyProductInput(&p, in)

	if err := s.validateProduct(ctx, &p); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgProductNotFound)
		}
		return nil, s.mapProductWriteError(err)
	}
	s.invalidate()

	s.logger.Info("Товар обновлён", slog.String("id", id))
	return s.reloadProduct(ctx, &p)
}

// DeleteProduct удаляет товар.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgProductNotFound)
		}
		return fmt.Errorf("удаление товара: %w", err)
	}
	s.invalidate()

	s.logger.Info("Товар удалён", slog.String("id", id))
	return nil
}

// validateProduct проверяет обязательные поля, категорию и изображения.
func (s *CatalogService) validateProduct(ctx context.Context, p *model.Product) error {
	if p.Name == "" {
		return invalid(msgProductNameRequired)
	}
	if p.Description == "" {
		return invalid(msgProductDescRequired)
	}
	if p.CategoryID == "" {
		return invalid(msgCategoryRequired)
	}
	if uuid.Validate(p.CategoryID) != nil {
		return invalid(msgCategoryNotFound)
	}
	exists, err := s.categories.Exists(ctx, p.CategoryID)
	if err != nil {
		return fmt.Errorf("проверка категории: %w", err)
	}
	if !exists {
		return invalid(msgCategoryNotFound)
	}

	for _, payload := range []string{p.Image, p.SecondaryImage} {
		if err := imageutil.ValidatePayload(payload, s.maxImageSizeKB); err != nil {
			return err
		}
	}
	return nil
}

// reloadProduct перечитывает товар, чтобы вернуть имя категории.
// При ошибке чтения возвращается записанное состояние.
func (s *CatalogService) reloadProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	fresh, err := s.products.GetByID(ctx, p.ID)
	if err != nil {
		s.logger.Warn("Не удалось перечитать товар",
			slog.String("id", p.ID),
			slog.String("error", err.Error()),
		)
		return p, nil
	}
	return fresh, nil
}

func (s *CatalogService) mapProductWriteError(err error) error {
	// Категорию удалили между проверкой и записью.
	if errors.Is(err, repository.ErrReferenced) {
		return invalid(msgCategoryNotFound)
	}
	return fmt.Errorf("запись товара: %w", err)
}

func applyProductInput(p *model.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.CategoryID != nil {
		p.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.SecondaryImage != nil {
		p.SecondaryImage = *in.SecondaryImage
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Size != nil {
		p.Size = *in.Size
	}
}

// --- Категории ---

// ListCategories возвращает все категории по имени с количеством активных товаров.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	if cached, ok := s.categoryList.Get(categoriesCacheKey); ok {
		return cached, nil
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	if categories == nil {
		categories = []*model.Category{}
	}
	s.categoryList.Set(categoriesCacheKey, categories)
	return categories, nil
}

// CreateCategory создаёт активную категорию.
func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	c := &model.Category{Active: true}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if c.Name == "" {
		return nil, invalid(msgCategoryNameRequired)
	}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.categories.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict(msgCategoryExists)
		}
		return nil, fmt.Errorf("создание категории: %w", err)
	}
	s.invalidate()

	s.logger.Info("Категория создана",
		slog.String("id", c.ID),
		slog.String("name", c.Name),
	)
	return c, nil
}

// UpdateCategory обновляет категорию. Не переданное описание становится
// пустым, не переданный active — true. Не переданное имя не меняется.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("получение категории: %w", err)
	}

	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
		if c.Name == "" {
			return nil, invalid(msgCategoryNameRequired)
		}
	}
	c.Description = ""
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	c.Active = true
	if in.Active != nil {
		c.Active = *in.Active
	}

	if err := s.categories.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, conflict(msgCategoryNameExists)
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound(msgCategoryNotFound)
		}
		return nil, fmt.Errorf("обновление категории: %w", err)
	}
	s.invalidate()

	s.logger.Info("Категория обновлена", slog.String("id", id))
	return c, nil
}

// DeleteCategory удаляет категорию без товаров (активных и неактивных).
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgCategoryNotFound)
		}
		return fmt.Errorf("получение категории: %w", err)
	}

	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("подсчёт товаров категории: %w", err)
	}
	if count > 0 {
		return invalid(fmt.Sprintf(msgCategoryInUseFmt, count))
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return invalid(msgCategoryInUseGeneric)
		case errors.Is(err, repository.ErrNotFound):
			return notFound(msgCategoryNotFound)
		}
		return fmt.Errorf("удаление категории: %w", err)
	}
	s.invalidate()

	s.logger.Info("Категория удалена", slog.String("id", id))
	return nil
}

// invalidate очищает все кэши каталога.
func (s *CatalogService) invalidate() {
	s.productLists.Purge()
	s.productByID.Purge()
	s.categoryList.Purge()
}
