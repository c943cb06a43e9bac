// session хранит сессию в двух HttpOnly-cookie (access и refresh) и
// восстанавливает по ним личность пользователя.
//
// Сервер не держит состояния сессии: владельцем является клиент,
// а подлинность обеспечивается подписью токенов.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/config"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

const (
	DefaultAccessCookie  = "access_token"
	DefaultRefreshCookie = "refresh_token"
)

// CookieOptions — атрибуты cookie сессии.
type CookieOptions struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// CookieOptionsFrom собирает CookieOptions из конфигурации сервиса.
func CookieOptionsFrom(cfg *config.Config) CookieOptions {
	return CookieOptions{
		AccessName:  cfg.Cookies.AccessName,
		RefreshName: cfg.Cookies.RefreshName,
		Domain:      cfg.Cookies.Domain,
		Secure:      cfg.SecureCookies(),
		AccessTTL:   cfg.Auth.AccessTokenTTL,
		RefreshTTL:  cfg.Auth.RefreshTokenTTL,
	}
}

// Tokens — сырые значения cookie сессии из запроса.
type Tokens struct {
	Access  string
	Refresh string
}

// Empty сообщает, что ни одной cookie сессии нет.
func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

// CookieStore читает и записывает cookie сессии.
type CookieStore struct {
	opts CookieOptions
}

// NewCookieStore создаёт хранилище; пустые имена заменяются значениями по умолчанию.
func NewCookieStore(opts CookieOptions) *CookieStore {
	if opts.AccessName == "" {
		opts.AccessName = DefaultAccessCookie
	}

	if opts.RefreshName == "" {
		opts.RefreshName = DefaultRefreshCookie
	}

	return &CookieStore{opts: opts}
}

// Read извлекает токены из cookie запроса. Отсутствующая cookie даёт пустую строку.
func (s *CookieStore) Read(r *http.Request) Tokens {
	return Tokens{
		Access:  cookieValue(r, s.opts.AccessName),
		Refresh: cookieValue(r, s.opts.RefreshName),
	}
}

// Owns сообщает, что cookie с таким именем принадлежит сессии.
func (s *CookieStore) Owns(name string) bool {
	return name == s.opts.AccessName || name == s.opts.RefreshName
}

// Persist записывает обе cookie сессии.
func (s *CookieStore) Persist(w http.ResponseWriter, access, refresh token.Token) {
	s.PersistAccess(w, access)
	s.set(w, s.cookie(s.opts.RefreshName, refresh.Value, s.opts.RefreshTTL))
}

// PersistPair записывает пару, выданную при входе, регистрации или ротации.
func (s *CookieStore) PersistPair(w http.ResponseWriter, pair *models.TokenPair) {
	s.Persist(w,
		token.Token{Value: pair.AccessToken, Role: token.RoleAccess, ExpiresAt: pair.AccessExpiresAt},
		token.Token{Value: pair.RefreshToken, Role: token.RoleRefresh, ExpiresAt: pair.RefreshExpiresAt},
	)
}

// PersistAccess записывает только access-cookie (тихое продление).
func (s *CookieStore) PersistAccess(w http.ResponseWriter, access token.Token) {
	s.set(w, s.cookie(s.opts.AccessName, access.Value, s.opts.AccessTTL))
}

// Clear удаляет обе cookie. Повторный вызов на том же ответе
// не добавляет новых заголовков Set-Cookie.
func (s *CookieStore) Clear(w http.ResponseWriter) {
	for _, name := range []string{s.opts.AccessName, s.opts.RefreshName} {
		c := s.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		s.set(w, c)
	}
}

func (s *CookieStore) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.opts.Domain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// set заменяет ранее выставленную в этом ответе cookie с тем же именем.
func (s *CookieStore) set(w http.ResponseWriter, c *http.Cookie) {
	h := w.Header()
	prefix := c.Name + "="

	existing := h.Values("Set-Cookie")
	kept := make([]string, 0, len(existing))
	for _, v := range existing {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}

	h.Del("Set-Cookie")
	for _, v := range kept {
		h.Add("Set-Cookie", v)
	}

	http.SetCookie(w, c)
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}
