package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	logctx "github.com/pribylovaa/go-travel-planner/internal/pkg/log"
	"github.com/pribylovaa/go-travel-planner/internal/pkg/redact"
	"github.com/pribylovaa/go-travel-planner/internal/storage"
	"github.com/pribylovaa/go-travel-planner/internal/token"
)

const maxNameRunes = 100

// CreateUser проверяет входные данные и сохраняет нового активного пользователя.
// Политика паролей проверяется до хэширования и до обращения к хранилищу.
func (s *Service) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	const op = "service.auth.CreateUser"

	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	first, last, err := validateNames(in.FirstName, in.LastName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.ValidatePolicy(in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: digest,
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// RegisterUser создаёт пользователя и сразу открывает для него сессию.
func (s *Service) RegisterUser(ctx context.Context, in models.NewUser) (*models.TokenPair, *models.AuthUser, error) {
	const op = "service.auth.RegisterUser"

	user, err := s.CreateUser(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.codec.IssuePair(identityOf(user))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("user_registered",
		"user_id", user.ID.String(),
		"email", redact.Email(user.Email),
	)

	return pair, models.AuthUserFrom(user), nil
}

// LoginUser выполняет вход по email и паролю.
// Отключённая учётная запись даёт ErrAccountDeactivated только при верном пароле.
func (s *Service) LoginUser(ctx context.Context, email, plain string) (*models.TokenPair, *models.AuthUser, error) {
	const op = "service.auth.LoginUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if plain == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(plain, user.PasswordHash) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountDeactivated)
	}

	pair, err := s.codec.IssuePair(identityOf(user))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		logctx.From(ctx).Warn("last_login_update_failed",
			"user_id", user.ID.String(),
			"err", err,
		)
	}

	return pair, models.AuthUserFrom(user), nil
}

// RefreshSession выполняет явную ротацию: по валидному refresh-токену выпускает
// новую пару. Владелец токена должен существовать и быть активным.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*models.TokenPair, *models.AuthUser, error) {
	const op = "service.auth.RefreshSession"

	claims, err := s.codec.Parse(refreshToken, token.RoleRefresh)
	if err != nil {
		logctx.From(ctx).Debug("refresh_rejected", "reason", err.Error())
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrAccountDeactivated)
	}

	pair, err := s.codec.IssuePair(identityOf(user))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, models.AuthUserFrom(user), nil
}

// Logout сбрасывает запись дедупликации для refresh-токена.
// Cookie очищает транспорт независимо от результата.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if s.renewals == nil || refreshToken == "" {
		return nil
	}

	key := token.Signature(refreshToken)
	if key == "" {
		return nil
	}

	if err := s.renewals.Forget(ctx, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// CurrentUser возвращает проекцию AuthUser для личности из сессии.
func (s *Service) CurrentUser(ctx context.Context, id models.Identity) (*models.AuthUser, error) {
	const op = "service.auth.CurrentUser"

	if id.IsZero() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	user, err := s.storage.UserByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountDeactivated)
	}

	return models.AuthUserFrom(user), nil
}

// SetUserActive включает или отключает учётную запись (travelctl).
// Уже выданные токены продолжают действовать до истечения срока.
func (s *Service) SetUserActive(ctx context.Context, email string, active bool) error {
	const op = "service.auth.SetUserActive"

	normEmail, err := validateEmail(email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetUserActive(ctx, normEmail, active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	logctx.From(ctx).Info("user_active_changed",
		"email", redact.Email(normEmail),
		"active", active,
	)

	return nil
}

func identityOf(u *models.User) models.Identity {
	return models.Identity{UserID: u.ID, Email: u.Email}
}

// validateEmail проверяет базовый формат email и приводит его к нижнему регистру.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

func validateNames(first, last string) (string, string, error) {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)

	if utf8.RuneCountInString(first) > maxNameRunes || utf8.RuneCountInString(last) > maxNameRunes {
		return "", "", ErrInvalidInput
	}

	return first, last, nil
}
