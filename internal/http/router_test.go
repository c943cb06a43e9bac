package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-travel-planner/internal/cache"
	"github.com/pribylovaa/go-travel-planner/internal/config"
	apierrors "github.com/pribylovaa/go-travel-planner/internal/http/errors"
	"github.com/pribylovaa/go-travel-planner/internal/http/handlers"
	"github.com/pribylovaa/go-travel-planner/internal/http/middleware"
	"github.com/pribylovaa/go-travel-planner/internal/metrics"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	"github.com/pribylovaa/go-travel-planner/internal/service"
	"github.com/pribylovaa/go-travel-planner/internal/session"
	"github.com/pribylovaa/go-travel-planner/internal/storage"
	"github.com/pribylovaa/go-travel-planner/internal/token"
	"github.com/pribylovaa/go-travel-planner/mocks"
)

const routerPW = "Wanderlust9"

// upstreamSeen — что получил веб-апстрим.
type upstreamSeen struct {
	mu      sync.Mutex
	path    string
	userID  string
	email   string
	cookies []*http.Cookie
	hits    int
}

func (u *upstreamSeen) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits
}

type routerEnv struct {
	handler  http.Handler
	st       *mocks.MockStorage
	codec    *token.Codec
	upstream *upstreamSeen
	user     *models.User
}

func newRouterEnv(t *testing.T, withUpstream bool) *routerEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	codec, err := token.New(config.AuthConfig{
		AccessSecret:    "router-access",
		RefreshSecret:   "router-refresh",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "travel-api",
	})
	require.NoError(t, err)

	hasher := password.New(bcrypt.MinCost)
	digest, err := hasher.Hash(routerPW)
	require.NoError(t, err)

	renewals := cache.NewMemoryRenewals()
	svc := service.New(st, codec, hasher)
	svc.SetRenewals(renewals)

	cookies := session.NewCookieStore(session.CookieOptions{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	env := &routerEnv{
		st:       st,
		codec:    codec,
		upstream: &upstreamSeen{},
		user: &models.User{
			ID:           uuid.New(),
			Email:        "traveller@example.com",
			PasswordHash: digest,
			FirstName:    "Ada",
			IsActive:     true,
		},
	}

	var upstream *url.URL
	if withUpstream {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			env.upstream.mu.Lock()
			env.upstream.path = r.URL.RequestURI()
			env.upstream.userID = r.Header.Get(middleware.HeaderUserID)
			env.upstream.email = r.Header.Get(middleware.HeaderUserEmail)
			env.upstream.cookies = r.Cookies()
			env.upstream.hits++
			env.upstream.mu.Unlock()

			_, _ = io.WriteString(w, "<html>page</html>")
		}))
		t.Cleanup(srv.Close)

		upstream, err = url.Parse(srv.URL)
		require.NoError(t, err)
	}

	env.handler = NewRouter(handlers.New(svc, cookies), Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout: 5 * time.Second,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Gate: middleware.GateOptions{
			Resolver: session.NewResolver(codec, renewals, 10*time.Second),
			Cookies:  cookies,
			Routes: middleware.RoutesFrom(config.RoutesConfig{
				Public:        []string{"/", "/explore", "/api/auth/login", "/api/auth/register", "/api/auth/refresh", "/api/auth/logout"},
				AuthOnly:      []string{"/login", "/register"},
				AssetPrefixes: []string{"/_next", "/static"},
				APIPrefix:     "/api",
				LoginPath:     "/login",
				LandingPath:   "/trips",
			}),
		},
		WebUpstream: upstream,
	})

	return env
}

func (e *routerEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *routerEnv) identity() models.Identity {
	return models.Identity{UserID: e.user.ID, Email: e.user.Email}
}

func (e *routerEnv) accessCookie(t *testing.T) *http.Cookie {
	t.Helper()
	tok, err := e.codec.IssueAccessToken(e.identity())
	require.NoError(t, err)
	return &http.Cookie{Name: session.DefaultAccessCookie, Value: tok.Value}
}

func (e *routerEnv) refreshCookie(t *testing.T) *http.Cookie {
	t.Helper()
	tok, err := e.codec.IssueRefreshToken(e.identity())
	require.NoError(t, err)
	return &http.Cookie{Name: session.DefaultRefreshCookie, Value: tok.Value}
}

func responseCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestRouter_LoginThenMe(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)
	env.st.EXPECT().UserByEmail(gomock.Any(), env.user.Email).Return(env.user, nil)
	env.st.EXPECT().UpdateLastLogin(gomock.Any(), env.user.ID, gomock.Any()).Return(nil)
	env.st.EXPECT().UserByID(gomock.Any(), env.user.ID).Return(env.user, nil)

	login := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"traveller@example.com","password":"`+routerPW+`"}`))
	rr := env.do(login)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEmpty(t, rr.Header().Get(middleware.HeaderRequestID))

	access := responseCookie(rr, session.DefaultAccessCookie)
	require.NotNil(t, access)

	me := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	me.AddCookie(&http.Cookie{Name: access.Name, Value: access.Value})
	rr = env.do(me)
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.AuthUser
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, env.user.ID, got.ID)
}

func TestRouter_MeWithoutSession_401JSON(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", errCode(t, rr))
}

func TestRouter_MeWithRefreshOnly_RenewsAccess(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)
	env.st.EXPECT().UserByID(gomock.Any(), env.user.ID).Return(env.user, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(env.refreshCookie(t))

	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	renewed := responseCookie(rr, session.DefaultAccessCookie)
	require.NotNil(t, renewed)
	_, ok := env.codec.Verify(renewed.Value, token.RoleAccess)
	require.True(t, ok)
	require.Nil(t, responseCookie(rr, session.DefaultRefreshCookie), "silent renewal must not rotate refresh")
}

func TestRouter_UnknownAPIPath_404JSON(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/trips/42", nil)
	req.AddCookie(env.accessCookie(t))

	rr := env.do(req)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", errCode(t, rr))
	require.Zero(t, env.upstream.count())
}

func TestRouter_ProtectedPage_NoSession_RedirectsToLogin(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, true)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/trips/42?tab=plan", nil))
	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "/login?redirect=/trips/42%3Ftab%3Dplan", rr.Header().Get("Location"))
	require.Zero(t, env.upstream.count())
}

func TestRouter_ProxyForwardsIdentity_StripsSessionCookies(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/trips?tab=all", nil)
	req.AddCookie(env.accessCookie(t))
	req.AddCookie(env.refreshCookie(t))
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	req.Header.Set(middleware.HeaderUserID, "spoofed")

	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "page")

	seen := env.upstream
	seen.mu.Lock()
	defer seen.mu.Unlock()

	require.Equal(t, 1, seen.hits)
	require.Equal(t, "/trips?tab=all", seen.path)
	require.Equal(t, env.user.ID.String(), seen.userID)
	require.Equal(t, env.user.Email, seen.email)
	require.Len(t, seen.cookies, 1)
	require.Equal(t, "theme", seen.cookies[0].Name)
}

func TestRouter_PublicPage_SpoofedIdentityStripped(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/explore", nil)
	req.Header.Set(middleware.HeaderUserID, uuid.NewString())
	req.Header.Set(middleware.HeaderUserEmail, "admin@example.com")

	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	env.upstream.mu.Lock()
	defer env.upstream.mu.Unlock()
	require.Equal(t, 1, env.upstream.hits)
	require.Empty(t, env.upstream.userID)
	require.Empty(t, env.upstream.email)
}

func TestRouter_AuthOnlyWithSession_RedirectsToLanding(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, true)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(env.accessCookie(t))

	rr := env.do(req)
	require.Equal(t, http.StatusFound, rr.Code)
	require.Equal(t, "/trips", rr.Header().Get("Location"))
}

func TestRouter_UpstreamDown_502(t *testing.T) {
	t.Parallel()

	dead, err := url.Parse("http://127.0.0.1:1")
	require.NoError(t, err)

	cookies := session.NewCookieStore(session.CookieOptions{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	h := fallback(middleware.RoutesFrom(config.RoutesConfig{APIPrefix: "/api"}), cookies, dead)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/explore", nil))
	require.Equal(t, http.StatusBadGateway, rr.Code)
	require.Equal(t, "bad_gateway", errCode(t, rr))
}

func TestRouter_Logout_ClearsCookies(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(env.accessCookie(t))
	req.AddCookie(env.refreshCookie(t))

	rr := env.do(req)
	require.Equal(t, http.StatusOK, rr.Code)

	for _, name := range []string{session.DefaultAccessCookie, session.DefaultRefreshCookie} {
		c := responseCookie(rr, name)
		require.NotNil(t, c, name)
		require.Empty(t, c.Value)
		require.Negative(t, c.MaxAge)
	}
}

func TestRouter_RegisterMobile_TokensInBody(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)
	env.st.EXPECT().UserByEmail(gomock.Any(), "new@example.com").Return(nil, storage.ErrNotFound)
	env.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		bytes.NewBufferString(`{"email":"New@Example.com","password":"`+routerPW+`"}`))
	req.Header.Set(models.ClientTypeHeader, models.ClientTypeMobile)

	rr := env.do(req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "new@example.com", resp.User.Email)

	id, ok := env.codec.Verify(resp.RefreshToken, token.RoleRefresh)
	require.True(t, ok)
	require.Equal(t, resp.User.ID, id.UserID)
}

func TestRouter_StrictBody_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	env := newRouterEnv(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"a@b.co","password":"x","remember":true}`))

	rr := env.do(req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", errCode(t, rr))
}
