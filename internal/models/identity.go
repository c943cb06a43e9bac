package models

import "github.com/google/uuid"

// Identity — личность, восстановленная из проверенного токена.
// Живёт в пределах одного запроса и не изменяется.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// IsZero сообщает, что личность не установлена.
func (i Identity) IsZero() bool {
	return i.UserID == uuid.Nil
}
