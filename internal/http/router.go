package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-travel-planner/internal/http/errors"
	"github.com/pribylovaa/go-travel-planner/internal/http/handlers"
	"github.com/pribylovaa/go-travel-planner/internal/http/middleware"
	"github.com/pribylovaa/go-travel-planner/internal/metrics"
	logctx "github.com/pribylovaa/go-travel-planner/internal/pkg/log"
	"github.com/pribylovaa/go-travel-planner/internal/session"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	Metrics *metrics.Metrics
	Gate    middleware.GateOptions
	// WebUpstream — адрес веб-фронтенда; nil — страницы отдают 404 JSON.
	WebUpstream *url.URL
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// Все запросы, включая проксируемые страницы, проходят через Request Gate.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),             // безопасно ловим паники
		middleware.RequestID(),           // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),  // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(opts.Metrics), // гистограмма длительностей
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
		middleware.Gate(opts.Gate),       // сессия, продление, редиректы, заголовки личности
	)

	registerRoutes(root, h)

	root.NotFound(fallback(opts.Gate.Routes, opts.Gate.Cookies, opts.WebUpstream))

	return root
}

// registerRoutes — единая точка регистрации REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})
}

// fallback обслуживает всё, что не является эндпойнтом /api/auth:
// API-пути дают 404 JSON, страницы проксируются на веб-фронтенд.
func fallback(routes middleware.Routes, cookies *session.CookieStore, upstream *url.URL) http.HandlerFunc {
	var proxy *httputil.ReverseProxy
	if upstream != nil {
		proxy = newWebProxy(upstream, cookies)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if proxy == nil || routes.IsAPI(r.URL.Path) {
			apierrors.WriteError(w, r, apierrors.ErrNotFound)
			return
		}

		proxy.ServeHTTP(w, r)
	}
}

// newWebProxy проксирует страницы на веб-фронтенд. Заголовки личности,
// выставленные Gate, уходят апстриму вместе с запросом; cookie сессии — нет.
func newWebProxy(upstream *url.URL, cookies *session.CookieStore) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
			stripSessionCookies(pr.Out, cookies)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logctx.From(r.Context()).Error("web_upstream_failed", "err", err)
			apierrors.WriteError(w, r, apierrors.ErrBadGateway)
		},
	}
}

// stripSessionCookies убирает из исходящего запроса cookie сессии:
// апстрим получает личность только через заголовки.
func stripSessionCookies(r *http.Request, store *session.CookieStore) {
	if store == nil {
		return
	}

	cookies := r.Cookies()
	r.Header.Del("Cookie")

	for _, c := range cookies {
		if store.Owns(c.Name) {
			continue
		}
		r.AddCookie(c)
	}
}
