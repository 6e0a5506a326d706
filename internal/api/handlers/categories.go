// categories.go — обработчики /api/categories.
package handlers

import (
	"net/http"

	"github.com/VinaySavla/royanix/internal/service"
)

const msgCategoryNotFound = "Category not found"

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (c categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        c.Name,
		Description: c.Description,
		Active:      c.Active,
	}
}

// ListCategories — GET /api/categories. Категории по имени с количеством активных товаров.
func (h *APIHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, mapCategories(categories))
}

// CreateCategory — POST /api/categories.
func (h *APIHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	c, err := h.catalog.CreateCategory(r.Context(), body.input())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create category")
		return
	}
	writeJSON(w, http.StatusCreated, mapCategory(c))
}

// UpdateCategory — PUT /api/categories/{id}.
func (h *APIHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgCategoryNotFound)
	if !ok {
		return
	}

	var body categoryRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	c, err := h.catalog.UpdateCategory(r.Context(), id, body.input())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update category")
		return
	}
	writeJSON(w, http.StatusOK, mapCategory(c))
}

// DeleteCategory — DELETE /api/categories/{id}.
func (h *APIHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, msgCategoryNotFound)
	if !ok {
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete category")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Category deleted successfully"})
}
