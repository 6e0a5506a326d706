package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/VinaySavla/royanix/internal/domain/model"
)

// Имя cookie с токеном администратора.
const CookieName = "admin-token"

// SessionManager — сессия администратора в HttpOnly cookie.
// Выпускает токен при входе, извлекает и проверяет его в запросах.
type SessionManager struct {
	tokens *TokenManager
	// secure — использовать Secure flag для cookie (true для HTTPS).
	secure bool
}

// NewSessionManager создаёт менеджер сессий.
func NewSessionManager(tokens *TokenManager, secure bool) *SessionManager {
	return &SessionManager{
		tokens: tokens,
		secure: secure,
	}
}

// Start выпускает токен для учётной записи и устанавливает cookie.
// Возвращает токен (для клиентов, не использующих cookie).
func (sm *SessionManager) Start(w http.ResponseWriter, admin *model.Admin) (string, error) {
	token, expiresAt, err := sm.tokens.Issue(admin)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(sm.tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// FromRequest извлекает и проверяет токен из cookie admin-token
// или заголовка Authorization: Bearer.
func (sm *SessionManager) FromRequest(r *http.Request) (*Claims, error) {
	return sm.tokens.Parse(TokenFromRequest(r))
}

// End удаляет cookie сессии (logout).
func (sm *SessionManager) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest возвращает токен из cookie, иначе из Bearer-заголовка.
// Пустая строка — токена нет.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if err != nil && !errors.Is(err, http.ErrNoCookie) {
		return ""
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
