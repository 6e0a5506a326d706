// Пакет model — доменные модели Royanix.
package model

import "time"

// Admin — учётная запись администратора backoffice.
// Хранится в таблице admins.
type Admin struct {
	// ID — UUID записи
	ID string
	// Username — уникальное имя пользователя (без пробелов по краям)
	Username string
	// Email — уникальный адрес электронной почты (в нижнем регистре)
	Email string
	// PasswordHash — bcrypt-хеш пароля; никогда не отдаётся наружу
	PasswordHash string
	// Role — роль (admin, superadmin)
	Role string
	// Active — активна ли учётная запись (неактивные не могут войти)
	Active bool
	// LastLoginAt — время последнего успешного входа (nil если не входил)
	LastLoginAt *time.Time
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// AdminUpdate — набор изменений учётной записи, прошедший авторизацию.
// nil-поле означает «не изменять».
type AdminUpdate struct {
	Username     *string
	Email        *string
	Role         *string
	Active       *bool
	PasswordHash *string
}

// IsEmpty возвращает true, если обновление не содержит ни одного изменения.
func (u *AdminUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.Role == nil &&
		u.Active == nil && u.PasswordHash == nil
}
