package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/pribylovaa/go-travel-planner/internal/http/errors"
	"github.com/pribylovaa/go-travel-planner/internal/metrics"
	logctx "github.com/pribylovaa/go-travel-planner/internal/pkg/log"
	"github.com/pribylovaa/go-travel-planner/internal/session"
)

// Заголовки личности для нижестоящих обработчиков и веб-апстрима.
// Клиентские значения этих заголовков всегда удаляются.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
)

// Resolver — часть session.Resolver, нужная Gate.
type Resolver interface {
	Resolve(ctx context.Context, t session.Tokens) session.Result
}

// GateOptions — зависимости Request Gate.
type GateOptions struct {
	Resolver Resolver
	Cookies  *session.CookieStore
	Routes   Routes
	Metrics  *metrics.Metrics
}

// Gate — единая точка принятия решения по каждому запросу:
//   - статика и public проходят без обращения к резолверу;
//   - продлённый access-токен записывается в ответ до принятия решения,
//     а невалидные cookie стираются;
//   - auth-only с сессией → редирект на LandingPath;
//   - protected без сессии → редирект на LoginPath?redirect=<путь> (для API — 401 JSON);
//   - иначе запрос проходит с X-User-Id/X-User-Email и личностью в контексте.
func Gate(opts GateOptions) Middleware {
	rt := opts.Routes

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(HeaderUserID)
			r.Header.Del(HeaderUserEmail)

			class := rt.Classify(r.URL.Path)
			if class == ClassAsset || class == ClassPublic {
				opts.Metrics.GateDecision(class.String(), "pass")
				next.ServeHTTP(w, r)
				return
			}

			tokens := opts.Cookies.Read(r)
			res := opts.Resolver.Resolve(r.Context(), tokens)

			ctx := r.Context()
			if res.Authenticated() {
				ctx = logctx.With(ctx, "user_id", res.Identity.UserID.String())
			}

			if res.State == session.StateRenewed && res.Renewed != nil {
				opts.Cookies.PersistAccess(w, *res.Renewed)
				opts.Metrics.Renewal()
				logctx.From(ctx).Debug("gate_renewed", "path", r.URL.Path)
			}

			if !res.Authenticated() && !tokens.Empty() {
				opts.Cookies.Clear(w)
			}

			switch {
			case class == ClassAuthOnly && res.Authenticated():
				opts.Metrics.GateDecision(class.String(), "redirect_landing")
				http.Redirect(w, r, rt.LandingPath, http.StatusFound)
				return

			case class == ClassProtected && !res.Authenticated():
				if rt.IsAPI(r.URL.Path) {
					opts.Metrics.GateDecision(class.String(), "unauthorized")
					apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
					return
				}

				opts.Metrics.GateDecision(class.String(), "redirect_login")
				http.Redirect(w, r, LoginRedirect(rt.LoginPath, r.URL), http.StatusFound)
				return
			}

			opts.Metrics.GateDecision(class.String(), "pass")

			if res.Authenticated() {
				r.Header.Set(HeaderUserID, res.Identity.UserID.String())
				r.Header.Set(HeaderUserEmail, res.Identity.Email)
				ctx = session.WithIdentity(ctx, res.Identity)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginRedirect строит адрес страницы входа с параметром redirect,
// содержащим исходный путь и query. Слэши остаются читаемыми: /login?redirect=/trips.
func LoginRedirect(loginPath string, original *url.URL) string {
	target := original.EscapedPath()
	if target == "" {
		target = "/"
	}

	if original.RawQuery != "" {
		target += "?" + original.RawQuery
	}

	return loginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}
