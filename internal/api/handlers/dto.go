// dto.go — JSON-представления доменных моделей.
package handlers

import (
	"time"

	"github.com/VinaySavla/royanix/internal/domain/model"
)

// adminJSON — учётная запись без хеша пароля.
type adminJSON struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func mapAdmin(a *model.Admin) adminJSON {
	return adminJSON{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		Active:    a.Active,
		LastLogin: a.LastLoginAt,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func mapAdmins(admins []*model.Admin) []adminJSON {
	items := make([]adminJSON, len(admins))
	for i, a := range admins {
		items[i] = mapAdmin(a)
	}
	return items
}

// categoryRefJSON — категория внутри товара.
type categoryRefJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type productJSON struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       categoryRefJSON `json:"category"`
	Image          string          `json:"image"`
	SecondaryImage string          `json:"secondaryImage"`
	Featured       bool            `json:"featured"`
	Active         bool            `json:"active"`
	Size           string          `json:"size"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func mapProduct(p *model.Product) productJSON {
	return productJSON{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Category:       categoryRefJSON{ID: p.CategoryID, Name: p.CategoryName},
		Image:          p.Image,
		SecondaryImage: p.SecondaryImage,
		Featured:       p.Featured,
		Active:         p.Active,
		Size:           p.Size,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func mapProducts(products []*model.Product) []productJSON {
	items := make([]productJSON, len(products))
	for i, p := range products {
		items[i] = mapProduct(p)
	}
	return items
}

type categoryJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Active       bool      `json:"active"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func mapCategory(c *model.Category) categoryJSON {
	return categoryJSON{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Active:       c.Active,
		ProductCount: c.ProductCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func mapCategories(categories []*model.Category) []categoryJSON {
	items := make([]categoryJSON, len(categories))
	for i, c := range categories {
		items[i] = mapCategory(c)
	}
	return items
}

type statsJSON struct {
	TotalProducts    int `json:"totalProducts"`
	FeaturedProducts int `json:"featuredProducts"`
	Categories       int `json:"categories"`
}

// encodedImageJSON — результат сжатия изображения.
type encodedImageJSON struct {
	Image    string  `json:"image"`
	Encoding string  `json:"encoding"`
	SizeKB   float64 `json:"sizeKB"`
	Quality  float64 `json:"quality"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}
