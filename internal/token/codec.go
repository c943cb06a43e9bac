// token выпускает и проверяет подписанные JWT двух ролей: access и refresh.
//
// Основные аспекты:
//   - каждая роль подписывается собственным секретом (HS256); секрет выбирается
//     по ОЖИДАЕМОЙ роли, поэтому токен одной роли не проходит проверку как другой;
//   - срок действия проверяет сам Codec (без leeway): в момент exp и позже токен невалиден;
//   - Verify никогда не возвращает ошибку наружу — только признак валидности;
//     подробная причина доступна через Parse для логирования.
//
// Codec не имеет изменяемого состояния и безопасен для конкурентного использования.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-travel-planner/internal/config"
	"github.com/pribylovaa/go-travel-planner/internal/models"
)

// Role — роль токена.
type Role string

const (
	RoleAccess  Role = "access"
	RoleRefresh Role = "refresh"
)

var (
	// ErrInvalidToken — токен повреждён, подписан не тем ключом или не тем алгоритмом.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongRole — роль в claims не совпадает с ожидаемой.
	ErrWrongRole = errors.New("token role mismatch")
	// ErrBadSecrets — секреты пустые или совпадают.
	ErrBadSecrets = errors.New("access and refresh secrets must be non-empty and distinct")
	// ErrEmptyIdentity — попытка выпустить токен без идентификатора пользователя.
	ErrEmptyIdentity = errors.New("empty identity")
)

// Claims — набор утверждений токена: sub (ID пользователя), email, role, iat, exp, iss, jti.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// Token — выпущенный токен и его временные границы.
type Token struct {
	Value     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec выпускает и проверяет токены.
type Codec struct {
	secrets map[Role][]byte
	ttls    map[Role]time.Duration
	issuer  string
	now     func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник текущего времени (для тестов и детерминизма).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// New создаёт Codec из конфигурации. Секреты читаются один раз и далее не меняются.
func New(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	const op = "token.New"

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" || cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%s: %w", op, ErrBadSecrets)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: non-positive token ttl", op)
	}

	c := &Codec{
		secrets: map[Role][]byte{
			RoleAccess:  []byte(cfg.AccessSecret),
			RoleRefresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[Role]time.Duration{
			RoleAccess:  cfg.AccessTokenTTL,
			RoleRefresh: cfg.RefreshTokenTTL,
		},
		issuer: cfg.Issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// IssueAccessToken выпускает короткоживущий access-токен.
func (c *Codec) IssueAccessToken(id models.Identity) (Token, error) {
	return c.issue(id, RoleAccess)
}

// IssueRefreshToken выпускает долгоживущий refresh-токен.
func (c *Codec) IssueRefreshToken(id models.Identity) (Token, error) {
	return c.issue(id, RoleRefresh)
}

// IssuePair выпускает access и refresh токены для одной личности.
func (c *Codec) IssuePair(id models.Identity) (*models.TokenPair, error) {
	const op = "token.IssuePair"

	access, err := c.IssueAccessToken(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := c.IssueRefreshToken(id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access.Value,
		RefreshToken:     refresh.Value,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}

func (c *Codec) issue(id models.Identity, role Role) (Token, error) {
	const op = "token.issue"

	if id.IsZero() {
		return Token{}, fmt.Errorf("%s: %w", op, ErrEmptyIdentity)
	}

	now := c.now().UTC()
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(now.Add(c.ttls[role]))

	claims := Claims{
		Email: id.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			Issuer:    c.issuer,
			IssuedAt:  iat,
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secrets[role])
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return Token{
		Value:     signed,
		Role:      role,
		IssuedAt:  iat.Time,
		ExpiresAt: exp.Time,
	}, nil
}

// Verify проверяет токен для ожидаемой роли и возвращает личность.
// Любая причина отказа (формат, подпись, алгоритм, срок, роль) даёт false.
func (c *Codec) Verify(raw string, role Role) (models.Identity, bool) {
	claims, err := c.Parse(raw, role)
	if err != nil {
		return models.Identity{}, false
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Identity{}, false
	}

	return models.Identity{UserID: uid, Email: claims.Email}, true
}

// Parse проверяет токен и возвращает claims либо причину отказа:
// ErrTokenExpired, ErrWrongRole или ErrInvalidToken.
func (c *Codec) Parse(raw string, role Role) (*Claims, error) {
	const op = "token.Parse"

	secret, ok := c.secrets[role]
	if !ok || raw == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !tok.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Role != role {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongRole)
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// Signature возвращает подпись JWT (третий сегмент) или "" для некорректной строки.
// Используется как ключ дедупликации продлений: подпись уникальна для токена
// и не раскрывает его содержимое.
func Signature(raw string) string {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return ""
	}

	return parts[2]
}

// TTL возвращает срок жизни токенов указанной роли.
func (c *Codec) TTL(role Role) time.Duration {
	return c.ttls[role]
}
