package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/pribylovaa/go-travel-planner/internal/http/errors"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	logctx "github.com/pribylovaa/go-travel-planner/internal/pkg/log"
	"github.com/pribylovaa/go-travel-planner/internal/pkg/redact"
	"github.com/pribylovaa/go-travel-planner/internal/service"
	"github.com/pribylovaa/go-travel-planner/internal/session"
)

// Register — POST /api/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, user, err := h.auth.RegisterUser(r.Context(), in.ToNewUser())
	if err != nil {
		logctx.From(r.Context()).Info("register_failed",
			"email", redact.Email(in.Email),
			"err", err,
		)
		apierrors.WriteError(w, r, err)
		return
	}

	h.cookies.PersistPair(w, pair)
	writeJSON(w, http.StatusCreated, models.NewAuthResponse(user, pair, isMobile(r)))
}

// Login — POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, user, err := h.auth.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		logctx.From(r.Context()).Info("login_failed",
			"email", redact.Email(in.Email),
			"err", err,
		)
		apierrors.WriteError(w, r, err)
		return
	}

	h.cookies.PersistPair(w, pair)
	writeJSON(w, http.StatusOK, models.NewAuthResponse(user, pair, isMobile(r)))
}

// Refresh — POST /api/auth/refresh: явная ротация обоих токенов.
// Refresh-токен берётся из cookie, иначе из тела запроса.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	raw := h.refreshToken(r, in)
	if raw == "" {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	pair, user, err := h.auth.RefreshSession(r.Context(), raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrAccountDeactivated) {
			h.cookies.Clear(w)
		}
		apierrors.WriteError(w, r, err)
		return
	}

	h.cookies.PersistPair(w, pair)
	writeJSON(w, http.StatusOK, models.NewAuthResponse(user, pair, isMobile(r)))
}

// Logout — POST /api/auth/logout. Cookie очищаются при любом исходе,
// до записи статуса ответа.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	decodeErr := decodeOptional(w, r, &in)

	if err := h.auth.Logout(r.Context(), h.refreshToken(r, in)); err != nil {
		logctx.From(r.Context()).Warn("logout_cleanup_failed", "err", err)
	}

	h.cookies.Clear(w)

	if decodeErr != nil {
		apierrors.WriteError(w, r, decodeErr)
		return
	}

	writeJSON(w, http.StatusOK, models.LogoutResponse{Ok: true})
}

// Me — GET /api/auth/me: текущий пользователь по личности из Request Gate.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := session.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrUnauthenticated)
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrAccountDeactivated) {
			h.cookies.Clear(w)
		}
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) refreshToken(r *http.Request, in models.RefreshRequest) string {
	if t := h.cookies.Read(r).Refresh; t != "" {
		return t
	}

	return in.RefreshToken
}

func isMobile(r *http.Request) bool {
	return models.IsMobileClient(r.Header.Get(models.ClientTypeHeader))
}
