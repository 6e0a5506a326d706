// Пакет rbac — роли администраторов и правила изменения учётных записей.
// Две роли: admin (каталог) и superadmin (каталог + управление учётными записями).
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// DefaultRole — роль новой учётной записи, если роль не указана.
const DefaultRole = RoleAdmin

// roleWeight — вес роли для сравнения.
// Чем выше вес, тем больше привилегий.
var roleWeight = map[string]int{
	RoleAdmin:      1,
	RoleSuperAdmin: 2,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// IsSuperAdmin возвращает true для роли superadmin.
func IsSuperAdmin(role string) bool {
	return role == RoleSuperAdmin
}

// CanManageAccounts — может ли роль создавать, просматривать и удалять
// учётные записи администраторов.
func CanManageAccounts(role string) bool {
	return roleWeight[role] >= roleWeight[RoleSuperAdmin]
}

// CanManageCatalog — может ли роль изменять товары и категории.
func CanManageCatalog(role string) bool {
	return roleWeight[role] >= roleWeight[RoleAdmin]
}
