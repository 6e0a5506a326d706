// products.go — обработчики /api/products.
package handlers

import (
	"net/http"

	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/service"
)

const msgProductNotFound = "Product not found"

// productRequest — тело POST/PUT. Отсутствующее поле не меняется.
type productRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Category       *string `json:"category"`
	Image          *string `json:"image"`
	SecondaryImage *string `json:"secondaryImage"`
	Featured       *bool   `json:"featured"`
	Active         *bool   `json:"active"`
	Size           *string `json:"size"`
}

func (p productRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:           p.Name,
		Description:    p.Description,
		CategoryID:     p.Category,
		Image:          p.Image,
		SecondaryImage: p.SecondaryImage,
		Featured:       p.Featured,
		Active:         p.Active,
		Size:           p.Size,
	}
}

// ListProducts — GET /api/products?featured=true&category=<id>.
func (h *APIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		FeaturedOnly: q.Get("featured") == "true",
		CategoryID:   q.Get("category"),
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, mapProducts(products))
}

// GetProduct — GET /api/products/{id}.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProductNotFound)
	if !ok {
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch product")
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

// CreateProduct — POST /api/products.
func (h *APIHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), body.input())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, mapProduct(p))
}

// UpdateProduct — PUT /api/products/{id}.
func (h *APIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProductNotFound)
	if !ok {
		return
	}

	var body productRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), id, body.input())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p))
}

// DeleteProduct — DELETE /api/products/{id}.
func (h *APIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgProductNotFound)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete product")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product deleted successfully"})
}
