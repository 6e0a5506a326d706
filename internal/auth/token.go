// Пакет auth — аутентификация администраторов backoffice.
// Пароли хешируются bcrypt, сессия — подписанный HS256 JWT в cookie admin-token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/VinaySavla/royanix/internal/domain/model"
)

// DefaultTokenTTL — время жизни токена по умолчанию.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken — токен отсутствует, подделан или просрочен.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// Claims — содержимое токена администратора.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager — выпуск и проверка токенов администраторов.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager создаёт менеджер токенов.
// secret — ключ подписи HS256, ttl — время жизни токена (0 — 24h).
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL возвращает время жизни выпускаемых токенов.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает токен для учётной записи.
// Возвращает строку токена и время истечения.
func (m *TokenManager) Issue(admin *model.Admin) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		ID:       admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse проверяет подпись и срок действия токена.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
