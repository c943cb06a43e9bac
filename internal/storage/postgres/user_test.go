package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/storage"
)

// Интеграционные тесты хранилища пользователей:
// - поднимают PostgreSQL через testcontainers-go (postgres:16-alpine);
// - применяют встроенные goose-миграции через Migrate;
// - проверяют CRUD, уникальность email (CITEXT), ErrNotFound и ошибки контекста.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -race -count=1

func startPostgres(t *testing.T) *Storage {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "user", "POSTGRES_PASSWORD": "pass", "POSTGRES_DB": "db"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://user:pass@%s:%s/db?sslmode=disable", host, port.Port())

	// Порт может открыться раньше, чем postgres начнёт принимать соединения.
	require.Eventually(t, func() bool {
		return Migrate(ctx, dsn) == nil
	}, 30*time.Second, 500*time.Millisecond)

	// Повторный прогон миграций — no-op.
	require.NoError(t, Migrate(ctx, dsn))

	st, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	return st
}

func newTestUser(email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_And_Lookup_OK(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := newTestUser("Traveller@Example.Com")
	require.NoError(t, st.SaveUser(ctx, u))

	byEmail, err := st.UserByEmail(ctx, "traveller@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, "Ada", byEmail.FirstName)
	require.True(t, byEmail.IsActive)
	require.Nil(t, byEmail.LastLoginAt)
	require.WithinDuration(t, u.CreatedAt, byEmail.CreatedAt, time.Second)

	byID, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, byEmail.Email, byID.Email)
}

func TestIntegration_SaveUser_UniqueEmail_CaseInsensitive(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, newTestUser("user@example.com")))

	err := st.SaveUser(ctx, newTestUser("USER@EXAMPLE.COM"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_NotFound(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	_, err := st.UserByEmail(ctx, "absent@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = st.UpdateLastLogin(ctx, uuid.New(), time.Now())
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = st.SetUserActive(ctx, "absent@example.com", false)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_UpdateLastLogin_And_SetUserActive(t *testing.T) {
	st := startPostgres(t)
	ctx := context.Background()

	u := newTestUser("active@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.UpdateLastLogin(ctx, u.ID, at))
	require.NoError(t, st.SetUserActive(ctx, "ACTIVE@example.com", false))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.NotNil(t, got.LastLoginAt)
	require.WithinDuration(t, at, *got.LastLoginAt, time.Second)
}

func TestIntegration_ContextCanceled(t *testing.T) {
	st := startPostgres(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByEmail(ctx, "user@example.com")
	require.ErrorIs(t, err, context.Canceled)

	err = st.SaveUser(ctx, newTestUser("c@example.com"))
	require.ErrorIs(t, err, context.Canceled)
}
