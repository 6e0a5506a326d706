package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VinaySavla/royanix/internal/domain/rbac"
	"github.com/VinaySavla/royanix/internal/repository/repotest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHash / fakeVerify — быстрая замена bcrypt в unit-тестах.
func fakeHash(p string) (string, error) { return "hash:" + p, nil }

func fakeVerify(p, h string) bool { return h == "hash:"+p }

func ptr[T any](v T) *T { return &v }

func newTestAdminService() (*AdminUserService, *repotest.Admins) {
	repo := repotest.NewAdmins()
	svc := NewAdminUserService(repo, repo, testLogger())
	svc.hash = fakeHash
	svc.verify = fakeVerify
	return svc, repo
}

func requesterOf(id, role string) rbac.Requester {
	return rbac.Requester{ID: id, Role: role}
}

// assertUserError проверяет вид ошибки и сообщение для клиента.
func assertUserError(t *testing.T, err error, kind error, message string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, message, err.Error())
}

func TestAdminUserService_Create(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestAdminService()
	root := repo.Seed("root", rbac.RoleSuperAdmin, "hash:rootpass", true)
	super := requesterOf(root.ID, rbac.RoleSuperAdmin)

	t.Run("только superadmin", func(t *testing.T) {
		_, err := svc.Create(ctx, requesterOf("x", rbac.RoleAdmin), CreateAdminInput{
			Username: "bob", Email: "bob@example.com", Password: "secret1",
		})
		assert.ErrorIs(t, err, ErrSuperAdminRequired)
	})

	t.Run("обязательные поля", func(t *testing.T) {
		for _, in := range []CreateAdminInput{
			{Email: "a@example.com", Password: "secret1"},
			{Username: "a", Password: "secret1"},
			{Username: "a", Email: "a@example.com"},
			{Username: "   ", Email: "a@example.com", Password: "secret1"},
		} {
			_, err := svc.Create(ctx, super, in)
			assertUserError(t, err, ErrValidation, "Username, email, and password are required")
		}
	})

	t.Run("короткий пароль", func(t *testing.T) {
		_, err := svc.Create(ctx, super, CreateAdminInput{
			Username: "bob", Email: "bob@example.com", Password: "12345",
		})
		assertUserError(t, err, ErrValidation, "Password must be at least 6 characters")
	})

	t.Run("неизвестная роль", func(t *testing.T) {
		_, err := svc.Create(ctx, super, CreateAdminInput{
			Username: "bob", Email: "bob@example.com", Password: "secret1", Role: "owner",
		})
		assert.ErrorIs(t, err, rbac.ErrInvalidRole)
	})

	t.Run("успех с нормализацией", func(t *testing.T) {
		a, err := svc.Create(ctx, super, CreateAdminInput{
			Username: "  bob ", Email: " Bob@Example.COM ", Password: "secret1",
		})
		require.NoError(t, err)
		assert.Equal(t, "bob", a.Username)
		assert.Equal(t, "bob@example.com", a.Email)
		assert.Equal(t, rbac.RoleAdmin, a.Role)
		assert.True(t, a.Active)
		assert.Equal(t, "hash:secret1", a.PasswordHash)
		assert.NotEmpty(t, a.ID)
	})

	t.Run("дубликат username и email", func(t *testing.T) {
		_, err := svc.Create(ctx, super, CreateAdminInput{
			Username: "bob", Email: "other@example.com", Password: "secret1",
		})
		assertUserError(t, err, ErrConflict, "username already exists")

		_, err = svc.Create(ctx, super, CreateAdminInput{
			Username: "bobby", Email: "BOB@example.com", Password: "secret1",
		})
		assertUserError(t, err, ErrConflict, "email already exists")
	})
}

// TestAdminUserService_PasswordByteLimit — пароль длиннее 72 байт отклоняется
// как ошибка ввода до хеширования настоящим bcrypt.
func TestAdminUserService_PasswordByteLimit(t *testing.T) {
	ctx := context.Background()
	repo := repotest.NewAdmins()
	svc := NewAdminUserService(repo, repo, testLogger())
	root := repo.Seed("root", rbac.RoleSuperAdmin, "h", true)
	super := requesterOf(root.ID, rbac.RoleSuperAdmin)

	_, err := svc.Create(ctx, super, CreateAdminInput{
		Username: "long", Email: "long@example.com", Password: strings.Repeat("a", 73),
	})
	require.ErrorIs(t, err, rbac.ErrPasswordTooLong)

	// Лимит считается в байтах: 37 двухбайтовых символов — 74 байта.
	_, err = svc.Create(ctx, super, CreateAdminInput{
		Username: "cyr", Email: "cyr@example.com", Password: strings.Repeat("ж", 37),
	})
	require.ErrorIs(t, err, rbac.ErrPasswordTooLong)

	edge, err := svc.Create(ctx, super, CreateAdminInput{
		Username: "edge", Email: "edge@example.com", Password: strings.Repeat("ж", 36),
	})
	require.NoError(t, err)

	_, err = svc.Update(ctx, super, edge.ID, rbac.Changeset{NewPassword: ptr(strings.Repeat("b", 73))})
	require.ErrorIs(t, err, rbac.ErrPasswordTooLong)

	_, err = svc.Update(ctx, requesterOf(edge.ID, rbac.RoleAdmin), edge.ID, rbac.Changeset{
		CurrentPassword: ptr(strings.Repeat("ж", 36)),
		NewPassword:     ptr(strings.Repeat("b", 73)),
	})
	require.ErrorIs(t, err, rbac.ErrPasswordTooLong)
}

func TestAdminUserService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestAdminService()
	root := repo.Seed("root", rbac.RoleSuperAdmin, "h", true)
	plain := repo.Seed("plain", rbac.RoleAdmin, "h", true)

	_, err := svc.List(ctx, requesterOf(plain.ID, rbac.RoleAdmin))
	assert.ErrorIs(t, err, ErrSuperAdminRequired)

	list, err := svc.List(ctx, requesterOf(root.ID, rbac.RoleSuperAdmin))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, plain.ID, list[0].ID, "новые первыми")
}

func TestAdminUserService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("чужая запись без superadmin", func(t *testing.T) {
		svc, repo := newTestAdminService()
		a := repo.Seed("a", rbac.RoleAdmin, "h", true)
		b := repo.Seed("b", rbac.RoleAdmin, "h", true)

		_, err := svc.Update(ctx, requesterOf(a.ID, rbac.RoleAdmin), b.ID, rbac.Changeset{Username: ptr("x")})
		assert.ErrorIs(t, err, rbac.ErrAccessDenied)
	})

	t.Run("шлюз доступа раньше поиска записи", func(t *testing.T) {
		svc, _ := newTestAdminService()
		_, err := svc.Update(ctx, requesterOf("a", rbac.RoleAdmin), "missing", rbac.Changeset{})
		assert.ErrorIs(t, err, rbac.ErrAccessDenied)
	})

	t.Run("запись не найдена", func(t *testing.T) {
		svc, _ := newTestAdminService()
		_, err := svc.Update(ctx, requesterOf("root", rbac.RoleSuperAdmin), "missing", rbac.Changeset{})
		assertUserError(t, err, ErrNotFound, "User not found")
	})

	t.Run("смена своего пароля", func(t *testing.T) {
		svc, repo := newTestAdminService()
		a := repo.Seed("a", rbac.RoleAdmin, "hash:oldpass", true)
		req := requesterOf(a.ID, rbac.RoleAdmin)

		_, err := svc.Update(ctx, req, a.ID, rbac.Changeset{NewPassword: ptr("newpass")})
		assert.ErrorIs(t, err, rbac.ErrMissingCurrentPassword)

		_, err = svc.Update(ctx, req, a.ID, rbac.Changeset{CurrentPassword: ptr("wrong"), NewPassword: ptr("newpass")})
		assert.ErrorIs(t, err, rbac.ErrInvalidCurrentPassword)

		updated, err := svc.Update(ctx, req, a.ID, rbac.Changeset{CurrentPassword: ptr("oldpass"), NewPassword: ptr("newpass")})
		require.NoError(t, err)
		assert.Equal(t, "hash:newpass", updated.PasswordHash)
	})

	t.Run("свою роль изменить нельзя", func(t *testing.T) {
		svc, repo := newTestAdminService()
		a := repo.Seed("a", rbac.RoleAdmin, "h", true)

		updated, err := svc.Update(ctx, requesterOf(a.ID, rbac.RoleAdmin), a.ID, rbac.Changeset{
			Role: ptr(rbac.RoleSuperAdmin), Active: ptr(false), Email: ptr(" NEW@example.com "),
		})
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleAdmin, updated.Role)
		assert.True(t, updated.Active)
		assert.Equal(t, "new@example.com", updated.Email)
	})

	t.Run("superadmin меняет чужую роль и сбрасывает пароль", func(t *testing.T) {
		svc, repo := newTestAdminService()
		root := repo.Seed("root", rbac.RoleSuperAdmin, "h", true)
		a := repo.Seed("a", rbac.RoleAdmin, "hash:oldpass", true)

		updated, err := svc.Update(ctx, requesterOf(root.ID, rbac.RoleSuperAdmin), a.ID, rbac.Changeset{
			Role: ptr(rbac.RoleSuperAdmin), Active: ptr(false), NewPassword: ptr("reset1"),
		})
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleSuperAdmin, updated.Role)
		assert.False(t, updated.Active)
		assert.Equal(t, "hash:reset1", updated.PasswordHash)
	})

	t.Run("пустое изменение возвращает запись без записи", func(t *testing.T) {
		svc, repo := newTestAdminService()
		a := repo.Seed("a", rbac.RoleAdmin, "h", true)

		updated, err := svc.Update(ctx, requesterOf(a.ID, rbac.RoleAdmin), a.ID, rbac.Changeset{Username: ptr("a")})
		require.NoError(t, err)
		assert.Equal(t, a.UpdatedAt, updated.UpdatedAt)
	})

	t.Run("дубликат username", func(t *testing.T) {
		svc, repo := newTestAdminService()
		a := repo.Seed("a", rbac.RoleAdmin, "h", true)
		repo.Seed("b", rbac.RoleAdmin, "h", true)

		_, err := svc.Update(ctx, requesterOf(a.ID, rbac.RoleAdmin), a.ID, rbac.Changeset{Username: ptr("b")})
		assertUserError(t, err, ErrConflict, "username already exists")
	})

	t.Run("последний активный superadmin", func(t *testing.T) {
		svc, repo := newTestAdminService()
		root := repo.Seed("root", rbac.RoleSuperAdmin, "h", true)
		// Токен superadmin, чья запись уже удалена.
		ghost := requesterOf("ghost", rbac.RoleSuperAdmin)

		_, err := svc.Update(ctx, ghost, root.ID, rbac.Changeset{Active: ptr(false)})
		assertUserError(t, err, ErrConflict, "At least one active superadmin must remain")

		_, err = svc.Update(ctx, ghost, root.ID, rbac.Changeset{Role: ptr(rbac.RoleAdmin)})
		assertUserError(t, err, ErrConflict, "At least one active superadmin must remain")

		// При втором активном superadmin понижение разрешено.
		repo.Seed("second", rbac.RoleSuperAdmin, "h", true)
		updated, err := svc.Update(ctx, ghost, root.ID, rbac.Changeset{Role: ptr(rbac.RoleAdmin)})
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleAdmin, updated.Role)
	})
}

func TestAdminUserService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestAdminService()
	root := repo.Seed("root", rbac.RoleSuperAdmin, "h", true)
	a := repo.Seed("a", rbac.RoleAdmin, "h", true)
	super := requesterOf(root.ID, rbac.RoleSuperAdmin)

	err := svc.Delete(ctx, requesterOf(a.ID, rbac.RoleAdmin), root.ID)
	assert.ErrorIs(t, err, ErrSuperAdminRequired)

	err = svc.Delete(ctx, super, root.ID)
	assertUserError(t, err, ErrValidation, "Cannot delete your own account")

	err = svc.Delete(ctx, super, "missing")
	assertUserError(t, err, ErrNotFound, "User not found")

	require.NoError(t, svc.Delete(ctx, super, a.ID))
	_, err = repo.GetByID(ctx, a.ID)
	assert.Error(t, err)

	// Единственного активного superadmin удалить нельзя даже другим токеном.
	err = svc.Delete(ctx, requesterOf("ghost", rbac.RoleSuperAdmin), root.ID)
	assertUserError(t, err, ErrConflict, "At least one active superadmin must remain")
}

func TestAdminUserService_Bootstrap(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestAdminService()

	_, err := svc.Bootstrap(ctx, "root", "", "secret1")
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.Bootstrap(ctx, "root", "Root@Example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Bootstrap(ctx, "other", "other@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, created)

	list, _ := repo.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, rbac.RoleSuperAdmin, list[0].Role)
	assert.Equal(t, "root@example.com", list[0].Email)
}

func TestUserError(t *testing.T) {
	err := invalid("bad input")
	var ue *UserError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "bad input", ue.Message)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
}
