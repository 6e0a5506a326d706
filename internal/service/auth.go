// auth.go — вход администраторов по логину и паролю.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/repository"
)

const msgLoginRequired = "Username and password are required"

// AuthService — проверка учётных данных администратора.
// Выпуск токена и cookie выполняет auth.SessionManager в handler.
type AuthService struct {
	repo      repository.AdminRepository
	verify    rbac.PasswordVerifier
	dummyHash func() string
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo repository.AdminRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		verify:    auth.VerifyPassword,
		dummyHash: auth.DummyHash,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

// Login проверяет логин (username или email) и пароль активной учётной записи.
// Неизвестный логин и неверный пароль неразличимы для клиента: в обоих
// случаях выполняется одно сравнение bcrypt.
func (s *AuthService) Login(ctx context.Context, login, password string) (*model.Admin, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, invalid(msgLoginRequired)
	}

	a, err := s.repo.GetActiveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.verify(password, s.dummyHash())
			s.logger.Info("Неудачная попытка входа", slog.String("login", login))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("поиск учётной записи: %w", err)
	}

	if !s.verify(password, a.PasswordHash) {
		s.logger.Info("Неудачная попытка входа", slog.String("login", login))
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, a.ID); err != nil {
		s.logger.Warn("Не удалось обновить время входа",
			slog.String("id", a.ID),
			slog.String("error", err.Error()),
		)
	} else {
		now := s.now()
		a.LastLoginAt = &now
	}

	s.logger.Info("Успешный вход",
		slog.String("id", a.ID),
		slog.String("username", a.Username),
	)
	return a, nil
}

// Check возвращает личность, зашитую в проверенный токен.
func (s *AuthService) Check(claims *auth.Claims) *model.Admin {
	return &model.Admin{
		ID:       claims.ID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}
