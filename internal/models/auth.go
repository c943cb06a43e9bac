package models

import "strings"

// Входные/выходные модели REST-эндпойнтов /api/auth/*.
// Каждое тело разбирается строго: неизвестные поля отклоняются.

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ToNewUser переводит тело запроса в доменную модель.
func (r RegisterRequest) ToNewUser() NewUser {
	return NewUser{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest — тело /refresh и /logout. Веб-клиенты шлют пустое тело
// и полагаются на cookie; мобильные передают токен явно.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AuthResponse — ответ входа, регистрации и ротации.
// Токены заполняются только для мобильных клиентов.
type AuthResponse struct {
	User             *AuthUser `json:"user"`
	AccessToken      string    `json:"access_token,omitempty"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	AccessExpiresAt  int64     `json:"access_expires_at,omitempty"`  // Unix UTC
	RefreshExpiresAt int64     `json:"refresh_expires_at,omitempty"` // Unix UTC
}

// NewAuthResponse собирает ответ; withTokens включает токены в тело.
func NewAuthResponse(user *AuthUser, pair *TokenPair, withTokens bool) AuthResponse {
	resp := AuthResponse{User: user}
	if withTokens && pair != nil {
		resp.AccessToken = pair.AccessToken
		resp.RefreshToken = pair.RefreshToken
		resp.AccessExpiresAt = pair.AccessExpiresAt.Unix()
		resp.RefreshExpiresAt = pair.RefreshExpiresAt.Unix()
	}

	return resp
}

type LogoutResponse struct {
	Ok bool `json:"ok"`
}

// Типы клиентов по заголовку X-Client-Type.
const (
	ClientTypeHeader = "X-Client-Type"
	ClientTypeMobile = "mobile"
)

// IsMobileClient сообщает, что клиент просит токены в теле ответа.
func IsMobileClient(clientType string) bool {
	return strings.EqualFold(strings.TrimSpace(clientType), ClientTypeMobile)
}
