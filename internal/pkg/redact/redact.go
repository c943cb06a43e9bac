// redact предоставляет утилиты безопасного редактирования чувствительных
// данных для логов (e-mail, токены, пароли).
package redact

import "strings"

// tokenTail — сколько последних символов токена допустимо показать в логах.
const tokenTail = 6

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать РОВНО один символ '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если локальная часть короче трёх символов — возвращается "***@<domain>".
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает безопасное представление токена: хвост подписи,
// по которому можно сопоставить записи логов, но нельзя восстановить токен.
// Короткие строки редактируются полностью.
func Token(raw string) string {
	if len(raw) < 4*tokenTail {
		return "[REDACTED_TOKEN]"
	}

	return "***" + raw[len(raw)-tokenTail:]
}

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }
