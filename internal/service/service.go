// service содержит сценарии подсистемы аутентификации travel-api:
// регистрацию, вход, явную ротацию сессии, выход, получение текущего
// пользователя и операторское включение/отключение учётных записей.
//
// Основные аспекты:
//   - Service не хранит состояние запроса и безопасен для конкурентного
//     использования при потокобезопасном storage.Storage;
//   - ошибки возвращаются как sentinel-значения ниже и маппятся на HTTP
//     в пакете internal/http/errors;
//   - сессия не имеет серверного состояния: выход лишь очищает cookie и
//     запись дедупликации продлений, если кэш сконфигурирован.
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/cache"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	"github.com/pribylovaa/go-travel-planner/internal/storage"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

var (
	// ErrInvalidCredentials — неверная пара email/пароль или пользователь не найден.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — refresh-токен невалиден или его владелец больше не существует.
	// HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAccountDeactivated — учётная запись отключена оператором.
	// Проверяется только после успешной проверки пароля. HTTP 403.
	ErrAccountDeactivated = errors.New("account is deactivated")

	// ErrEmailTaken — email уже занят. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — email имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidInput — прочие некорректные входные данные (длина имени и т.п.). HTTP 400.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound — пользователь не найден (операторские сценарии). HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// Ошибки политики паролей переэкспортируются, чтобы транспорт
	// зависел только от пакета service.
	ErrEmptyPassword = password.ErrEmptyPassword
	ErrWeakPassword  = password.ErrWeakPassword
	ErrTooLong       = password.ErrTooLong
)

// Service описывает бизнес-логику аутентификации.
type Service struct {
	storage  storage.Storage
	codec    *token.Codec
	hasher   *password.Hasher
	renewals cache.Renewals // может быть nil
	now      func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, codec *token.Codec, hasher *password.Hasher) *Service {
	return &Service{
		storage: storage,
		codec:   codec,
		hasher:  hasher,
		now:     time.Now,
	}
}

// SetRenewals устанавливает кэш дедупликации продлений (опционально).
// Используется при выходе, чтобы сбросить запись для предъявленного refresh-токена.
func (s *Service) SetRenewals(r cache.Renewals) {
	s.renewals = r
}
