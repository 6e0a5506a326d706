// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс или нарушение инварианта).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidCredentials — неверный логин или пароль.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrSuperAdminRequired — операция доступна только superadmin.
	ErrSuperAdminRequired = errors.New("Access denied. Superadmin role required.")
)

// UserError — ошибка с сообщением для клиента.
// Kind — одна из sentinel-ошибок пакета, по ней handler выбирает HTTP-статус.
type UserError struct {
	Kind    error
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Kind
}

func invalid(message string) error {
	return &UserError{Kind: ErrValidation, Message: message}
}

func notFound(message string) error {
	return &UserError{Kind: ErrNotFound, Message: message}
}

func conflict(message string) error {
	return &UserError{Kind: ErrConflict, Message: message}
}
