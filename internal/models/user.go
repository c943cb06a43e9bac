package models

import (
	"time"

	"github.com/google/uuid"
)

// User — запись пользователя в хранилище.
// Подсистема аутентификации читает только ID, Email, PasswordHash и IsActive;
// остальные поля нужны для проекции AuthUser.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	AvatarURL    string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser — входные данные для создания пользователя (регистрация, travelctl).
type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthUser — минимальная проекция личности для клиентов и обработчиков.
type AuthUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// AuthUserFrom проецирует запись пользователя в AuthUser.
func AuthUserFrom(u *User) *AuthUser {
	return &AuthUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
	}
}
