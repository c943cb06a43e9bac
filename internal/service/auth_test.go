package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-travel-planner/internal/cache"
	"github.com/pribylovaa/go-travel-planner/internal/config"
	"github.com/pribylovaa/go-travel-planner/internal/models"
	"github.com/pribylovaa/go-travel-planner/internal/password"
	"github.com/pribylovaa/go-travel-planner/internal/storage"
	"github.com/pribylovaa/go-travel-planner/internal/token"
	"github.com/pribylovaa/go-travel-planner/mocks"
)

const goodPW = "Wanderlust9"

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "svc-access",
		RefreshSecret:   "svc-refresh",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		Issuer:          "travel-api",
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *token.Codec) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	codec, err := token.New(testCfg())
	require.NoError(t, err)

	return New(st, codec, password.New(bcrypt.MinCost)), st, codec
}

func storedUser(t *testing.T, pw string, active bool) *models.User {
	t.Helper()

	digest, err := password.New(bcrypt.MinCost).Hash(pw)
	require.NoError(t, err)

	return &models.User{
		ID:           uuid.New(),
		Email:        "traveller@example.com",
		PasswordHash: digest,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		IsActive:     active,
	}
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, codec := newSvc(t)

	st.EXPECT().UserByEmail(gomock.Any(), "traveller@example.com").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
		require.Equal(t, "traveller@example.com", u.Email)
		require.True(t, u.IsActive)
		require.NotEqual(t, goodPW, u.PasswordHash)
		require.True(t, password.New(bcrypt.MinCost).Verify(goodPW, u.PasswordHash))
		return nil
	})

	pair, user, err := svc.RegisterUser(context.Background(), models.NewUser{
		Email:     "  Traveller@Example.com ",
		Password:  goodPW,
		FirstName: " Ada ",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "Ada", user.FirstName)
	require.Equal(t, "traveller@example.com", user.Email)

	id, ok := codec.Verify(pair.AccessToken, token.RoleAccess)
	require.True(t, ok)
	require.Equal(t, user.ID, id.UserID)

	_, ok = codec.Verify(pair.RefreshToken, token.RoleRefresh)
	require.True(t, ok)
}

func TestRegisterUser_WeakPassword_RejectedBeforeStorage(t *testing.T) {
	t.Parallel()

	// Ни одного EXPECT на хранилище: политика проверяется раньше.
	svc, _, _ := newSvc(t)

	_, _, err := svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: "short"})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, _, err = svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: ""})
	require.ErrorIs(t, err, ErrEmptyPassword)

	_, _, err = svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: "Aa1" + strings.Repeat("x", 80)})
	require.ErrorIs(t, err, ErrTooLong)
}

func TestRegisterUser_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, _, _ := newSvc(t)

	for _, email := range []string{"", "not-an-email", "Ada <ada@example.com>"} {
		_, _, err := svc.RegisterUser(context.Background(), models.NewUser{Email: email, Password: goodPW})
		require.ErrorIs(t, err, ErrInvalidEmail, "email=%q", email)
	}

	_, _, err := svc.RegisterUser(context.Background(), models.NewUser{
		Email:     "a@b.co",
		Password:  goodPW,
		FirstName: strings.Repeat("я", maxNameRunes+1),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterUser_EmailTaken(t *testing.T) {
	t.Parallel()

	t.Run("on lookup", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(&models.User{}, nil)

		_, _, err := svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: goodPW})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("on insert race", func(t *testing.T) {
		svc, st, _ := newSvc(t)
		st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(nil, storage.ErrNotFound)
		st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

		_, _, err := svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: goodPW})
		require.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestRegisterUser_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	boom := errors.New("db down")
	st.EXPECT().UserByEmail(gomock.Any(), "a@b.co").Return(nil, boom)

	_, _, err := svc.RegisterUser(context.Background(), models.NewUser{Email: "a@b.co", Password: goodPW})
	require.ErrorIs(t, err, boom)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, codec := newSvc(t)
	user := storedUser(t, goodPW, true)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, gomock.Any()).Return(nil)

	pair, au, err := svc.LoginUser(context.Background(), "TRAVELLER@example.com", goodPW)
	require.NoError(t, err)
	require.Equal(t, user.ID, au.ID)

	id, ok := codec.Verify(pair.AccessToken, token.RoleAccess)
	require.True(t, ok)
	require.Equal(t, user.Email, id.Email)
}

func TestLoginUser_LastLoginFailure_NotFatal(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	user := storedUser(t, goodPW, true)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().UpdateLastLogin(gomock.Any(), user.ID, gomock.Any()).Return(errors.New("timeout"))

	_, _, err := svc.LoginUser(context.Background(), user.Email, goodPW)
	require.NoError(t, err)
}

func TestLoginUser_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	user := storedUser(t, goodPW, true)

	_, _, err := svc.LoginUser(context.Background(), "bad", goodPW)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser(context.Background(), user.Email, "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	st.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").Return(nil, storage.ErrNotFound)
	_, _, err = svc.LoginUser(context.Background(), "ghost@example.com", goodPW)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	_, _, err = svc.LoginUser(context.Background(), user.Email, "Wrong-password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_Deactivated(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	user := storedUser(t, goodPW, false)

	// Неверный пароль для отключённой записи — всё ещё ErrInvalidCredentials.
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil).Times(2)

	_, _, err := svc.LoginUser(context.Background(), user.Email, "Wrong-password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser(context.Background(), user.Email, goodPW)
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestRefreshSession(t *testing.T) {
	t.Parallel()

	svc, st, codec := newSvc(t)
	user := storedUser(t, goodPW, true)

	old, err := codec.IssueRefreshToken(models.Identity{UserID: user.ID, Email: user.Email})
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	pair, au, err := svc.RefreshSession(context.Background(), old.Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, au.ID)
	require.NotEqual(t, old.Value, pair.RefreshToken)

	_, ok := codec.Verify(pair.RefreshToken, token.RoleRefresh)
	require.True(t, ok)
}

func TestRefreshSession_Rejections(t *testing.T) {
	t.Parallel()

	svc, st, codec := newSvc(t)
	user := storedUser(t, goodPW, true)
	id := models.Identity{UserID: user.ID, Email: user.Email}

	_, _, err := svc.RefreshSession(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)

	access, err := codec.IssueAccessToken(id)
	require.NoError(t, err)
	_, _, err = svc.RefreshSession(context.Background(), access.Value)
	require.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := codec.IssueRefreshToken(id)
	require.NoError(t, err)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)
	_, _, err = svc.RefreshSession(context.Background(), refresh.Value)
	require.ErrorIs(t, err, ErrInvalidToken)

	inactive := *user
	inactive.IsActive = false
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(&inactive, nil)
	_, _, err = svc.RefreshSession(context.Background(), refresh.Value)
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestLogout_ForgetsRenewal(t *testing.T) {
	t.Parallel()

	svc, _, codec := newSvc(t)
	require.NoError(t, svc.Logout(context.Background(), "anything"))

	renewals := cache.NewMemoryRenewals()
	svc.SetRenewals(renewals)

	refresh, err := codec.IssueRefreshToken(models.Identity{UserID: uuid.New(), Email: "a@b.co"})
	require.NoError(t, err)

	_, err = renewals.Remember(context.Background(), token.Signature(refresh.Value), token.Token{Value: "x"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, renewals.Len())

	require.NoError(t, svc.Logout(context.Background(), refresh.Value))
	require.Equal(t, 0, renewals.Len())

	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)
	user := storedUser(t, goodPW, true)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	au, err := svc.CurrentUser(context.Background(), models.Identity{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, "Lovelace", au.LastName)

	_, err = svc.CurrentUser(context.Background(), models.Identity{})
	require.ErrorIs(t, err, ErrInvalidToken)

	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(nil, storage.ErrNotFound)
	_, err = svc.CurrentUser(context.Background(), models.Identity{UserID: user.ID})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSetUserActive(t *testing.T) {
	t.Parallel()

	svc, st, _ := newSvc(t)

	st.EXPECT().SetUserActive(gomock.Any(), "a@b.co", false).Return(nil)
	require.NoError(t, svc.SetUserActive(context.Background(), "A@B.co", false))

	st.EXPECT().SetUserActive(gomock.Any(), "ghost@b.co", true).Return(storage.ErrNotFound)
	require.ErrorIs(t, svc.SetUserActive(context.Background(), "ghost@b.co", true), ErrUserNotFound)

	require.ErrorIs(t, svc.SetUserActive(context.Background(), "bad", true), ErrInvalidEmail)
}
