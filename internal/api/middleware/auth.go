// auth.go — middleware аутентификации и авторизации администраторов.
// Токен HS256 берётся из cookie admin-token или заголовка Authorization: Bearer,
// проверенные claims кладутся в контекст запроса.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/VinaySavla/royanix/internal/api/errors"
	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — проверенные claims в контексте запроса.
	ContextKeyClaims contextKey = "jwt_claims"
)

// Сообщения 401/403 для клиента.
const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
)

// AuthClaims — claims аутентифицированного администратора.
type AuthClaims struct {
	// ID — ID учётной записи.
	ID string
	// Username — имя пользователя на момент выпуска токена.
	Username string
	// Role — роль на момент выпуска токена.
	Role string
}

// HasAnyRole проверяет, совпадает ли роль с одной из указанных.
func (c *AuthClaims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Requester возвращает автора запроса для правил rbac.
func (c *AuthClaims) Requester() rbac.Requester {
	return rbac.Requester{ID: c.ID, Role: c.Role}
}

// TokenParser извлекает и проверяет токен запроса.
// Реализуется auth.SessionManager.
type TokenParser interface {
	FromRequest(r *http.Request) (*auth.Claims, error)
}

// JWTAuth — middleware аутентификации по токену администратора.
type JWTAuth struct {
	sessions TokenParser
	logger   *slog.Logger
}

// NewJWTAuth создаёт middleware аутентификации.
func NewJWTAuth(sessions TokenParser, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware: без токена — 401 No token provided,
// с невалидным или просроченным — 401 Invalid token.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.TokenFromRequest(r) == "" {
				apierrors.Unauthorized(w, msgNoToken)
				return
			}

			claims, err := j.sessions.FromRequest(r)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, msgInvalidToken)
				return
			}

			authClaims := &AuthClaims{
				ID:       claims.ID,
				Username: claims.Username,
				Role:     claims.Role,
			}
			ctx := context.WithValue(r.Context(), ContextKeyClaims, authClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- RBAC middleware helpers ---

// RequireRole возвращает middleware, требующий одну из указанных ролей.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	message := "Access denied. " + roleList(roles) + " role required."

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, msgNoToken)
				return
			}

			if !claims.HasAnyRole(roles...) {
				apierrors.Forbidden(w, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// roleList — "Superadmin" или "Admin or Superadmin".
func roleList(roles []string) string {
	titled := make([]string, len(roles))
	for i, role := range roles {
		if role == "" {
			continue
		}
		titled[i] = strings.ToUpper(role[:1]) + role[1:]
	}
	return strings.Join(titled, " or ")
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

// WithClaims помещает claims в контекст.
func WithClaims(ctx context.Context, claims *AuthClaims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}
