// mutation.go — авторизация изменения учётной записи администратора.
// Решает, какие поля запроса на изменение будут применены, либо отклоняет
// запрос целиком. Уникальность username/email проверяется при записи в БД.
package rbac

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Ограничения пароля. bcrypt не принимает больше 72 байт.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// Ошибки авторизации изменения. Тексты стабильны и показываются пользователю.
var (
	ErrAccessDenied           = errors.New("Access denied")
	ErrMissingCurrentPassword = errors.New("Current password is required")
	ErrInvalidCurrentPassword = errors.New("Current password is incorrect")
	ErrPasswordTooShort       = errors.New("New password must be at least 6 characters")
	ErrPasswordTooLong        = errors.New("Password must be at most 72 bytes")
	ErrInvalidRole            = errors.New("Invalid role. Allowed values: admin, superadmin")
)

// Requester — аутентифицированный автор запроса.
type Requester struct {
	ID   string
	Role string
}

// AccountSnapshot — сохранённое состояние изменяемой учётной записи.
type AccountSnapshot struct {
	ID           string
	Username     string
	Email        string
	Role         string
	Active       bool
	PasswordHash string
}

// Changeset — запрошенные изменения. nil — поле не передано.
type Changeset struct {
	Username        *string
	Email           *string
	Role            *string
	Active          *bool
	CurrentPassword *string
	NewPassword     *string
}

// PasswordVerifier сравнивает открытый пароль с сохранённым хешем.
type PasswordVerifier func(plaintext, hash string) bool

// AllowedFields — поля, разрешённые к записи.
// NewPassword — директива «захешировать и сохранить», а не значение колонки.
type AllowedFields struct {
	Username    *string
	Email       *string
	Role        *string
	Active      *bool
	NewPassword *string
}

// IsEmpty возвращает true, если ни одно поле не будет изменено.
func (f AllowedFields) IsEmpty() bool {
	return f.Username == nil && f.Email == nil && f.Role == nil &&
		f.Active == nil && f.NewPassword == nil
}

// CheckAccess — шлюз доступа: изменять учётную запись может её владелец
// или superadmin.
func CheckAccess(req Requester, targetID string) error {
	if req.ID != targetID && !IsSuperAdmin(req.Role) {
		return ErrAccessDenied
	}
	return nil
}

// AuthorizeUpdate применяет правила по порядку и возвращает разрешённые поля
// либо первую нарушенную ошибку. Нарушение любого правила отклоняет весь запрос.
func AuthorizeUpdate(req Requester, target AccountSnapshot, cs Changeset, verify PasswordVerifier) (AllowedFields, error) {
	var out AllowedFields

	if err := CheckAccess(req, target.ID); err != nil {
		return out, err
	}
	isSelf := req.ID == target.ID
	isSuperAdmin := IsSuperAdmin(req.Role)

	if cs.Username != nil {
		username := strings.TrimSpace(*cs.Username)
		if username != "" && username != target.Username {
			out.Username = &username
		}
	}
	if cs.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*cs.Email))
		if email != "" && email != target.Email {
			out.Email = &email
		}
	}

	// Роль и статус меняет только superadmin и только чужие.
	if !isSelf && isSuperAdmin {
		if cs.Role != nil && *cs.Role != "" && *cs.Role != target.Role {
			if !IsValidRole(*cs.Role) {
				return AllowedFields{}, ErrInvalidRole
			}
			role := *cs.Role
			out.Role = &role
		}
		if cs.Active != nil && *cs.Active != target.Active {
			active := *cs.Active
			out.Active = &active
		}
	}

	if cs.NewPassword != nil && *cs.NewPassword != "" {
		if isSelf {
			if cs.CurrentPassword == nil || *cs.CurrentPassword == "" {
				return AllowedFields{}, ErrMissingCurrentPassword
			}
			if verify == nil || !verify(*cs.CurrentPassword, target.PasswordHash) {
				return AllowedFields{}, ErrInvalidCurrentPassword
			}
		}
		if utf8.RuneCountInString(*cs.NewPassword) < MinPasswordLength {
			return AllowedFields{}, ErrPasswordTooShort
		}
		if len(*cs.NewPassword) > MaxPasswordBytes {
			return AllowedFields{}, ErrPasswordTooLong
		}
		password := *cs.NewPassword
		out.NewPassword = &password
	}

	return out, nil
}
