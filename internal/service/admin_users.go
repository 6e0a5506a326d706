// Пакет service — бизнес-логика Royanix.
// admin_users.go — сервис управления учётными записями администраторов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/VinaySavla/royanix/internal/auth"
	"github.com/VinaySavla/royanix/internal/domain/model"
	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/repository"
)

// Сообщения об ошибках учётных записей.
const (
	msgCredentialsRequired = "Username, email, and password are required"
	msgPasswordTooShort    = "Password must be at least 6 characters"
	msgUserNotFound        = "User not found"
	msgCannotDeleteSelf    = "Cannot delete your own account"
	msgLastSuperAdmin      = "At least one active superadmin must remain"
)

// FirstAdminCreator создаёт первую учётную запись при пустой таблице admins.
// Реализуется repository.AdminBootstrapper.
type FirstAdminCreator interface {
	CreateFirstAdmin(ctx context.Context, a *model.Admin) (bool, error)
}

// CreateAdminInput — данные новой учётной записи.
type CreateAdminInput struct {
	Username string
	Email    string
	Password string
	// Role — пустая строка означает rbac.DefaultRole.
	Role string
}

// AdminUserService — сервис управления учётными записями.
type AdminUserService struct {
	repo         repository.AdminRepository
	bootstrapper FirstAdminCreator
	hash         func(string) (string, error)
	verify       rbac.PasswordVerifier
	logger       *slog.Logger
}

// NewAdminUserService создаёт сервис управления учётными записями.
func NewAdminUserService(
	repo repository.AdminRepository,
	bootstrapper FirstAdminCreator,
	logger *slog.Logger,
) *AdminUserService {
	return &AdminUserService{
		repo:         repo,
		bootstrapper: bootstrapper,
		hash:         auth.HashPassword,
		verify:       auth.VerifyPassword,
		logger:       logger.With(slog.String("component", "admin_users_service")),
	}
}

// List возвращает все учётные записи, новые первыми. Только для superadmin.
func (s *AdminUserService) List(ctx context.Context, requester rbac.Requester) ([]*model.Admin, error) {
	if !rbac.CanManageAccounts(requester.Role) {
		return nil, ErrSuperAdminRequired
	}
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение учётных записей: %w", err)
	}
	return admins, nil
}

// Create создаёт учётную запись. Только для superadmin.
func (s *AdminUserService) Create(ctx context.Context, requester rbac.Requester, in CreateAdminInput) (*model.Admin, error) {
	if !rbac.CanManageAccounts(requester.Role) {
		return nil, ErrSuperAdminRequired
	}

	a, err := s.newAdmin(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, mapAdminWriteError(err)
	}

	s.logger.Info("Учётная запись создана",
		slog.String("id", a.ID),
		slog.String("username", a.Username),
		slog.String("role", a.Role),
		slog.String("created_by", requester.ID),
	)
	return a, nil
}

// Update применяет изменения к учётной записи targetID.
// Порядок: шлюз доступа, поиск записи, правила rbac.AuthorizeUpdate,
// хеширование пароля, защита последнего superadmin, запись.
func (s *AdminUserService) Update(ctx context.Context, requester rbac.Requester, targetID string, cs rbac.Changeset) (*model.Admin, error) {
	if err := rbac.CheckAccess(requester, targetID); err != nil {
		return nil, err
	}

	target, err := s.getAdmin(ctx, targetID)
	if err != nil {
		return nil, err
	}

	allowed, err := rbac.AuthorizeUpdate(requester, snapshotOf(target), cs, s.verify)
	if err != nil {
		return nil, err
	}
	if allowed.IsEmpty() {
		return target, nil
	}

	upd := &model.AdminUpdate{
		Username: allowed.Username,
		Email:    allowed.Email,
		Role:     allowed.Role,
		Active:   allowed.Active,
	}
	if allowed.NewPassword != nil {
		hash, err := s.hash(*allowed.NewPassword)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	if removesActiveSuperAdmin(target, upd) {
		if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, targetID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgUserNotFound)
		}
		return nil, mapAdminWriteError(err)
	}

	s.logger.Info("Учётная запись обновлена",
		slog.String("id", targetID),
		slog.String("updated_by", requester.ID),
		slog.Bool("password_changed", upd.PasswordHash != nil),
	)
	return updated, nil
}

// Delete удаляет учётную запись. Только для superadmin, себя удалить нельзя.
func (s *AdminUserService) Delete(ctx context.Context, requester rbac.Requester, targetID string) error {
	if !rbac.CanManageAccounts(requester.Role) {
		return ErrSuperAdminRequired
	}
	if requester.ID == targetID {
		return invalid(msgCannotDeleteSelf)
	}

	target, err := s.getAdmin(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Active && rbac.IsSuperAdmin(target.Role) {
		if err := s.ensureAnotherSuperAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgUserNotFound)
		}
		return fmt.Errorf("удаление учётной записи: %w", err)
	}

	s.logger.Info("Учётная запись удалена",
		slog.String("id", targetID),
		slog.String("username", target.Username),
		slog.String("deleted_by", requester.ID),
	)
	return nil
}

// Bootstrap создаёт superadmin, если учётных записей ещё нет.
// Возвращает false, если таблица admins не пуста.
func (s *AdminUserService) Bootstrap(ctx context.Context, username, email, password string) (bool, error) {
	a, err := s.newAdmin(CreateAdminInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     rbac.RoleSuperAdmin,
	})
	if err != nil {
		return false, err
	}

	created, err := s.bootstrapper.CreateFirstAdmin(ctx, a)
	if err != nil {
		return false, fmt.Errorf("создание первой учётной записи: %w", err)
	}
	if created {
		s.logger.Info("Создана первая учётная запись superadmin",
			slog.String("id", a.ID),
			slog.String("username", a.Username),
		)
	}
	return created, nil
}

// newAdmin нормализует и проверяет входные данные, хеширует пароль.
func (s *AdminUserService) newAdmin(in CreateAdminInput) (*model.Admin, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, invalid(msgCredentialsRequired)
	}
	if utf8.RuneCountInString(in.Password) < rbac.MinPasswordLength {
		return nil, invalid(msgPasswordTooShort)
	}
	if len(in.Password) > rbac.MaxPasswordBytes {
		return nil, rbac.ErrPasswordTooLong
	}

	role := in.Role
	if role == "" {
		role = rbac.DefaultRole
	}
	if !rbac.IsValidRole(role) {
		return nil, rbac.ErrInvalidRole
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	return &model.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}, nil
}

func (s *AdminUserService) getAdmin(ctx context.Context, id string) (*model.Admin, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("получение учётной записи: %w", err)
	}
	return a, nil
}

// ensureAnotherSuperAdmin возвращает конфликт, если активный superadmin
// остался один.
func (s *AdminUserService) ensureAnotherSuperAdmin(ctx context.Context) error {
	count, err := s.repo.CountActiveSuperAdmins(ctx)
	if err != nil {
		return fmt.Errorf("подсчёт superadmin: %w", err)
	}
	if count <= 1 {
		return conflict(msgLastSuperAdmin)
	}
	return nil
}

// removesActiveSuperAdmin — изменение лишает target статуса активного superadmin.
func removesActiveSuperAdmin(target *model.Admin, upd *model.AdminUpdate) bool {
	if !target.Active || !rbac.IsSuperAdmin(target.Role) {
		return false
	}
	demoted := upd.Role != nil && !rbac.IsSuperAdmin(*upd.Role)
	deactivated := upd.Active != nil && !*upd.Active
	return demoted || deactivated
}

func snapshotOf(a *model.Admin) rbac.AccountSnapshot {
	return rbac.AccountSnapshot{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		Role:         a.Role,
		Active:       a.Active,
		PasswordHash: a.PasswordHash,
	}
}

// mapAdminWriteError переводит ошибку уникальности в конфликт с именем поля.
func mapAdminWriteError(err error) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return conflict(dup.Error())
	}
	if errors.Is(err, repository.ErrConflict) {
		return conflict("Account already exists")
	}
	return fmt.Errorf("запись учётной записи: %w", err)
}
