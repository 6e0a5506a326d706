// auth.go — обработчики /api/auth: вход, проверка сессии, выход.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/VinaySavla/royanix/internal/api/errors"
	"github.com/VinaySavla/royanix/internal/api/middleware"
	"github.com/VinaySavla/royanix/internal/auth"
)

type loginRequest struct {
	// Username — имя пользователя или email.
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionAdminJSON — учётная запись в ответах /api/auth.
type sessionAdminJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Message string           `json:"message"`
	Admin   sessionAdminJSON `json:"admin"`
	// Token — тот же токен, что и в cookie, для клиентов с Authorization: Bearer.
	Token string `json:"token"`
}

type checkResponse struct {
	Authenticated bool             `json:"authenticated"`
	Admin         sessionAdminJSON `json:"admin"`
}

// Login — POST /api/auth/login.
// Проверяет учётные данные и устанавливает cookie admin-token на 24 часа.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	admin, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Internal server error")
		return
	}

	token, err := h.sessions.Start(w, admin)
	if err != nil {
		h.logger.Error("Ошибка выпуска токена",
			slog.String("id", admin.ID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Admin: sessionAdminJSON{
			ID:       admin.ID,
			Username: admin.Username,
			Email:    admin.Email,
			Role:     admin.Role,
		},
		Token: token,
	})
}

// CheckAuth — GET /api/auth/check.
// Возвращает личность из проверенного токена.
func (h *APIHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "No token provided")
		return
	}

	admin := h.authSvc.Check(&auth.Claims{ID: claims.ID, Username: claims.Username, Role: claims.Role})
	writeJSON(w, http.StatusOK, checkResponse{
		Authenticated: true,
		Admin: sessionAdminJSON{
			ID:       admin.ID,
			Username: admin.Username,
			Role:     admin.Role,
		},
	})
}

// Logout — POST /api/auth/logout. Удаляет cookie сессии.
func (h *APIHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.End(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}
