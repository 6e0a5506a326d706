// admin_users.go — обработчики /api/admin/users.
// Список, создание и удаление — только superadmin (RequireRole на маршруте и
// проверка в сервисе). Обновление доступно любому аутентифицированному,
// права на отдельные поля решает rbac.AuthorizeUpdate.
package handlers

import (
	"net/http"

	apierrors "github.com/VinaySavla/royanix/internal/api/errors"
	"github.com/VinaySavla/royanix/internal/api/middleware"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/service"
)

const msgUserNotFound = "User not found"

type createAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateAdminRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	Role            *string `json:"role"`
	Active          *bool   `json:"active"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// requester возвращает автора запроса или пишет 401.
func requester(w http.ResponseWriter, r *http.Request) (rbac.Requester, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "No token provided")
		return rbac.Requester{}, false
	}
	return claims.Requester(), true
}

// ListAdminUsers — GET /api/admin/users.
func (h *APIHandler) ListAdminUsers(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}

	admins, err := h.adminUsers.List(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, mapAdmins(admins))
}

// CreateAdminUser — POST /api/admin/users.
func (h *APIHandler) CreateAdminUser(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}

	var body createAdminRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	admin, err := h.adminUsers.Create(r.Context(), req, service.CreateAdminInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create admin")
		return
	}
	writeJSON(w, http.StatusCreated, mapAdmin(admin))
}

// UpdateAdminUser — PUT /api/admin/users/{id}.
func (h *APIHandler) UpdateAdminUser(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	var body updateAdminRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	admin, err := h.adminUsers.Update(r.Context(), req, id, rbac.Changeset{
		Username:        body.Username,
		Email:           body.Email,
		Role:            body.Role,
		Active:          body.Active,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, mapAdmin(admin))
}

// DeleteAdminUser — DELETE /api/admin/users/{id}.
func (h *APIHandler) DeleteAdminUser(w http.ResponseWriter, r *http.Request) {
	req, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, msgUserNotFound)
	if !ok {
		return
	}

	if err := h.adminUsers.Delete(r.Context(), req, id); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "User deleted successfully"})
}
