// handler.go — основной обработчик HTTP API.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/VinaySavla/royanix/internal/api/errors"
	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/imageutil"
	"github.com/VinaySavla/royanix/internal/service"
)

// maxJSONBody — лимит тела JSON-запроса. Товар несёт до двух изображений по 250KB в base64.
const maxJSONBody = 4 << 20

// Services — сервисы, используемые обработчиками.
type Services struct {
	Auth       *service.AuthService
	AdminUsers *service.AdminUserService
	Catalog    *service.CatalogService
	Stats      *service.StatsService
	Images     *service.ImageService
}

// APIHandler — обработчик HTTP API.
type APIHandler struct {
	health     *HealthHandler
	sessions   *auth.SessionManager
	authSvc    *service.AuthService
	adminUsers *service.AdminUserService
	catalog    *service.CatalogService
	stats      *service.StatsService
	images     *service.ImageService
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	sessions *auth.SessionManager,
	svc Services,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		sessions:   sessions,
		authSvc:    svc.Auth,
		adminUsers: svc.AdminUsers,
		catalog:    svc.Catalog,
		stats:      svc.Stats,
		images:     svc.Images,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// messageResponse — ответ операций без тела ресурса.
type messageResponse struct {
	Message string `json:"message"`
}

// decodeJSON читает тело запроса в dst. При ошибке пишет 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Invalid JSON body")
		return false
	}
	return true
}

// pathID возвращает {id} из пути. Значение, не являющееся UUID,
// не может существовать — отвечаем 404 с сообщением ресурса.
func pathID(w http.ResponseWriter, r *http.Request, notFoundMsg string) (string, bool) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		apierrors.NotFound(w, notFoundMsg)
		return "", false
	}
	return id, true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и отдаются как 500 с fallback-сообщением.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrSuperAdminRequired),
		errors.Is(err, rbac.ErrAccessDenied):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, imageutil.ErrCompressionFailed):
		apierrors.CompressionFailed(w, err.Error())
	case isValidationError(err):
		apierrors.ValidationError(w, validationMessage(err))
	default:
		h.logger.Error(fallback,
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, fallback)
	}
}

// clientErrors — ошибки входных данных, сообщение которых отдаётся клиенту как есть.
var clientErrors = []error{
	service.ErrValidation,
	rbac.ErrMissingCurrentPassword,
	rbac.ErrInvalidCurrentPassword,
	rbac.ErrPasswordTooShort,
	rbac.ErrPasswordTooLong,
	rbac.ErrInvalidRole,
	imageutil.ErrNoFile,
	imageutil.ErrInvalidType,
	imageutil.ErrFileTooLarge,
	imageutil.ErrDecodeFailed,
	imageutil.ErrInvalidPayload,
}

func isValidationError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// validationMessage возвращает сообщение для клиента. Для обёрнутых
// sentinel-ошибок пакетов rbac и imageutil — текст самой sentinel-ошибки.
func validationMessage(err error) string {
	var userErr *service.UserError
	if errors.As(err, &userErr) {
		return userErr.Message
	}
	for _, target := range clientErrors[1:] {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
