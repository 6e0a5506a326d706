package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost — стоимость bcrypt для новых хешей.
const PasswordCost = 12

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword сравнивает пароль с bcrypt-хешем.
// Сигнатура совпадает с rbac.PasswordVerifier.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyHash — bcrypt-хеш той же стоимости для сравнения при неизвестном логине.
// Вычисляется один раз при первом обращении.
var DummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("royanix-unknown-login"), PasswordCost)
	if err != nil {
		return ""
	}
	return string(hash)
})
