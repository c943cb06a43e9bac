// errors стандартизирует ответы об ошибках HTTP-слоя travel-api.
// На вход принимает доменную ошибку (sentinel из service или этого пакета),
// на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Это единственное место, где доменные ошибки превращаются в HTTP-коды.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/pribylovaa/go-travel-planner/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrUnauthenticated — запрос к защищённому API без валидной сессии.
	ErrUnauthenticated = stderrors.New("unauthenticated")
	// ErrBadRequest — тело запроса не разобрано (битый JSON, лишние поля).
	ErrBadRequest = stderrors.New("bad request")
	// ErrNotFound — маршрут не найден.
	ErrNotFound = stderrors.New("not found")
	// ErrBadGateway — веб-апстрим недоступен.
	ErrBadGateway = stderrors.New("bad gateway")
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// table — порядок важен: берётся первое совпадение по errors.Is.
var table = []mapping{
	{ErrBadRequest, http.StatusBadRequest, "invalid_argument", "invalid request body"},
	{service.ErrInvalidEmail, http.StatusBadRequest, "invalid_email", "invalid email"},
	{service.ErrEmptyPassword, http.StatusBadRequest, "weak_password", "password is required"},
	{service.ErrWeakPassword, http.StatusBadRequest, "weak_password",
		"password must be at least 8 characters and contain lower case, upper case letters and a digit"},
	{service.ErrTooLong, http.StatusBadRequest, "weak_password", "password must not exceed 72 bytes"},
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_argument", "invalid argument"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "invalid email or password"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated", "unauthenticated"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "unauthenticated"},
	{service.ErrAccountDeactivated, http.StatusForbidden, "account_deactivated", "account is deactivated"},
	{service.ErrUserNotFound, http.StatusNotFound, "not_found", "not found"},
	{ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{service.ErrEmailTaken, http.StatusConflict, "already_exists", "email already registered"},
	{ErrBadGateway, http.StatusBadGateway, "bad_gateway", "upstream unavailable"},
	{context.Canceled, StatusClientClosedRequest, "canceled", "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"},
}

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка (БД недоступна и т.п.) — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err != nil {
		for _, m := range table {
			if stderrors.Is(err, m.target) {
				return m.status, ErrorResponse{Error: APIError{Code: m.code, Message: m.message}}
			}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: APIError{
			Code:    "internal",
			Message: "internal error",
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров и мидлваров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
