// password — хэширование и проверка паролей (bcrypt) и политика сложности.
// Используется только при регистрации и входе; на горячем пути Request Gate
// не вызывается, так как bcrypt намеренно медленный.
package password

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost — рабочий фактор bcrypt по умолчанию.
const DefaultCost = 12

const (
	minRunes = 8
	maxBytes = 72 // предел bcrypt
)

var (
	// ErrEmptyPassword — пароль пустой.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	ErrWeakPassword = errors.New("password is too weak")
	// ErrTooLong — пароль длиннее, чем bcrypt способен учесть.
	ErrTooLong = errors.New("password is too long")
)

// Hasher хэширует и проверяет пароли с фиксированным рабочим фактором.
type Hasher struct {
	cost int
}

// New создаёт Hasher. Значение вне допустимого диапазона bcrypt заменяется на DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &Hasher{cost: cost}
}

// Cost возвращает рабочий фактор.
func (h *Hasher) Cost() int { return h.cost }

// Hash возвращает bcrypt-дайджест пароля.
func (h *Hasher) Hash(plain string) (string, error) {
	const op = "password.Hash"

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w", op, ErrTooLong)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(digest), nil
}

// Verify сравнивает пароль с дайджестом за постоянное время.
// Битый дайджест трактуется как несовпадение.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// ValidatePolicy проверяет минимальные требования к паролю:
// длина >= 8 символов и <= 72 байт, хотя бы одна строчная, заглавная буква и цифра.
func ValidatePolicy(pw string) error {
	const op = "password.ValidatePolicy"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len(pw) > maxBytes {
		return fmt.Errorf("%s: %w", op, ErrTooLong)
	}

	if len([]rune(pw)) < minRunes {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !(hasLower && hasUpper && hasDigit) {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
