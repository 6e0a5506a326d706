package model

import "time"

// Category — категория товаров.
type Category struct {
	ID          string
	Name        string
	Description string
	Active      bool
	// ProductCount — количество активных товаров категории, вычисляется при чтении.
	ProductCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product — товар каталога.
// Image и SecondaryImage хранят data URL, полученный от image encoder.
type Product struct {
	ID          string
	Name        string
	Description string
	CategoryID  string
	// CategoryName — имя категории (JOIN при чтении, не хранится в products).
	CategoryName   string
	Image          string
	SecondaryImage string
	Featured       bool
	Active         bool
	Size           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProductFilter — фильтр публичного списка товаров.
type ProductFilter struct {
	// FeaturedOnly — только избранные товары.
	FeaturedOnly bool
	// CategoryID — только товары категории (пустая строка — все).
	CategoryID string
}

// Stats — сводка для dashboard.
type Stats struct {
	// TotalProducts — количество активных товаров.
	TotalProducts int
	// FeaturedProducts — количество активных избранных товаров.
	FeaturedProducts int
	// Categories — количество категорий.
	Categories int
}
