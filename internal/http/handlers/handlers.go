package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apierrors "github.com/pribylovaa/go-travel-planner/internal/http/errors"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/session"
)

const maxBodyBytes = 1 << 20

// Auth — сценарии аутентификации, которые вызывают обработчики.
type Auth interface {
	RegisterUser(ctx context.Context, in models.NewUser) (*models.TokenPair, *models.AuthUser, error)
	LoginUser(ctx context.Context, email, password string) (*models.TokenPair, *models.AuthUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.TokenPair, *models.AuthUser, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, id models.Identity) (*models.AuthUser, error)
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	auth    Auth
	cookies *session.CookieStore
}

func New(auth Auth, cookies *session.CookieStore) *Handlers {
	return &Handlers{auth: auth, cookies: cookies}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля и ограничиваем размер тела.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return apierrors.ErrBadRequest
	}

	return nil
}

// decodeOptional — как decodeStrict, но пустое тело допустимо.
func decodeOptional(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.ErrBadRequest
	}

	return nil
}
