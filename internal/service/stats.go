// stats.go — сводка каталога для dashboard.
package service

import (
	"context"
	"fmt"

	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/repository"
)

// StatsService — сервис сводной статистики.
type StatsService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(products repository.ProductRepository, categories repository.CategoryRepository) *StatsService {
	return &StatsService{products: products, categories: categories}
}

// Get возвращает количество активных товаров, активных избранных товаров
// и категорий.
func (s *StatsService) Get(ctx context.Context) (*model.Stats, error) {
	total, featured, err := s.products.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт товаров: %w", err)
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт категорий: %w", err)
	}
	return &model.Stats{
		TotalProducts:    total,
		FeaturedProducts: featured,
		Categories:       categories,
	}, nil
}
