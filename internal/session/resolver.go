package session

import (
	"context"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/cache"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	logctx "github.com/pribylovaa/go-travel-planner/internal/pkg/log"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

//go:generate mockgen -destination=../../mocks/codec_mock.go -package=mocks github.com/pribylovaa/go-travel-planner/internal/session Codec

// Codec — часть token.Codec, нужная резолверу.
type Codec interface {
	Verify(raw string, role token.Role) (models.Identity, bool)
	IssueAccessToken(id models.Identity) (token.Token, error)
}

// State — итог разрешения сессии.
type State int

const (
	StateUnauthenticated State = iota
	StateFresh
	StateRenewed
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateRenewed:
		return "renewed"
	default:
		return "unauthenticated"
	}
}

// Result — результат Resolve. Renewed заполнен только для StateRenewed
// и должен быть записан в ответ до принятия решения о маршруте.
type Result struct {
	State    State
	Identity models.Identity
	Renewed  *token.Token
}

// Authenticated сообщает, что личность установлена.
func (r Result) Authenticated() bool {
	return r.State != StateUnauthenticated
}

// Resolver восстанавливает личность по паре токенов, при необходимости
// продлевая access-токен по refresh-токену.
type Resolver struct {
	codec    Codec
	renewals cache.Renewals
	window   time.Duration
	now      func() time.Time
}

// NewResolver создаёт резолвер. renewals может быть nil: тогда параллельные
// продления одного refresh-токена выпускают независимые access-токены.
func NewResolver(codec Codec, renewals cache.Renewals, window time.Duration) *Resolver {
	return &Resolver{
		codec:    codec,
		renewals: renewals,
		window:   window,
		now:      time.Now,
	}
}

// Resolve определяет состояние сессии:
//  1. валидный access-токен → StateFresh;
//  2. иначе валидный refresh-токен → новый access-токен, StateRenewed;
//  3. иначе → StateUnauthenticated.
//
// Без обеих cookie кодек не вызывается.
func (r *Resolver) Resolve(ctx context.Context, t Tokens) Result {
	if t.Empty() {
		return Result{State: StateUnauthenticated}
	}

	if t.Access != "" {
		if id, ok := r.codec.Verify(t.Access, token.RoleAccess); ok {
			return Result{State: StateFresh, Identity: id}
		}
	}

	if t.Refresh == "" {
		return Result{State: StateUnauthenticated}
	}

	id, ok := r.codec.Verify(t.Refresh, token.RoleRefresh)
	if !ok {
		return Result{State: StateUnauthenticated}
	}

	tok, err := r.codec.IssueAccessToken(id)
	if err != nil {
		logctx.From(ctx).Error("session_renew_issue_failed", "err", err)
		return Result{State: StateUnauthenticated}
	}

	tok = r.dedup(ctx, t.Refresh, tok)

	return Result{State: StateRenewed, Identity: id, Renewed: &tok}
}

// dedup возвращает access-токен, уже выпущенный для этого refresh-токена
// в пределах окна, либо запоминает tok. Ошибки кэша не влияют на результат.
func (r *Resolver) dedup(ctx context.Context, refresh string, tok token.Token) token.Token {
	if r.renewals == nil || r.window <= 0 {
		return tok
	}

	key := token.Signature(refresh)
	if key == "" {
		return tok
	}

	ttl := r.window
	if left := tok.ExpiresAt.Sub(r.now()); left < ttl {
		ttl = left
	}

	winner, err := r.renewals.Remember(ctx, key, tok, ttl)
	if err != nil {
		logctx.From(ctx).Warn("session_renew_dedup_failed", "err", err)
		return tok
	}

	return winner
}

type identityKey struct{}

// WithIdentity кладёт личность в контекст запроса.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom достаёт личность из контекста.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(models.Identity)
	if !ok || id.IsZero() {
		return models.Identity{}, false
	}

	return id, true
}
