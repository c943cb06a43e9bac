// cache хранит короткоживущие записи дедупликации продлений сессии.
//
// Когда несколько параллельных запросов одного клиента предъявляют один и тот же
// refresh-токен, первый выпущенный access-токен запоминается по подписи refresh-токена,
// а остальные запросы получают его же вместо выпуска собственного.
// Кэш — оптимизация: его ошибки не должны ломать аутентификацию.
package cache

//go:generate mockgen -source=cache.go -destination=../../mocks/renewals_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/token"
)

// ErrCorruptEntry — запись в кэше не удалось разобрать.
var ErrCorruptEntry = errors.New("corrupt renewal entry")

// Renewals — контракт кэша продлений.
type Renewals interface {
	// Remember сохраняет tok по ключу, если ключ свободен, и возвращает
	// победивший токен: tok, если запись создана сейчас, иначе ранее сохранённый.
	// ttl <= 0 — ничего не сохраняется, возвращается tok.
	Remember(ctx context.Context, key string, tok token.Token, ttl time.Duration) (token.Token, error)
	// Forget удаляет запись (logout). Отсутствие записи ошибкой не является.
	Forget(ctx context.Context, key string) error
	// Close освобождает ресурсы.
	Close() error
}

// encode упаковывает токен в строку "iat|exp|value" (unix-секунды).
func encode(tok token.Token) string {
	return strconv.FormatInt(tok.IssuedAt.Unix(), 10) + "|" +
		strconv.FormatInt(tok.ExpiresAt.Unix(), 10) + "|" +
		tok.Value
}

func decode(s string) (token.Token, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) != 3 || parts[2] == "" {
		return token.Token{}, ErrCorruptEntry
	}

	iat, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}

	return token.Token{
		Value:     parts[2],
		Role:      token.RoleAccess,
		IssuedAt:  time.Unix(iat, 0).UTC(),
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}, nil
}
