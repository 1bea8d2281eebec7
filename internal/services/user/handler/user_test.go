package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"balcao-system/internal/database"
	"balcao-system/internal/ledger"
	"balcao-system/internal/utils"
)

var testAuth = AuthConfig{
	JWTSecret: []byte("test-secret"),
	TokenTTL:  time.Hour,
}

func newTestHandler(t *testing.T) *UserHandler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewUserHandler(db, nil, testAuth)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	result, err := h.Register(ctx, RegisterRequest{
		Username: "operador",
		Email:    "operador@example.com",
		Password: "senha-muito-secreta",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Empty(t, result.User.Password)

	claims, err := utils.ParseToken(testAuth.JWTSecret, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserId)
	assert.Equal(t, "operador", claims.Username)

	login, err := h.Login(ctx, LoginRequest{Username: "operador", Password: "senha-muito-secreta"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	require.NotNil(t, login.User.LastLogin)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	_, err := h.Register(ctx, RegisterRequest{
		Username: "gerente", Email: "gerente@example.com", Password: "12345678",
	})
	require.NoError(t, err)

	_, err = h.Register(ctx, RegisterRequest{
		Username: "gerente", Email: "outro@example.com", Password: "12345678",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = h.Register(ctx, RegisterRequest{
		Username: "outro", Email: "gerente@example.com", Password: "12345678",
	})
	require.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	_, err := h.Register(ctx, RegisterRequest{
		Username: "caixa", Email: "caixa@example.com", Password: "12345678",
	})
	require.NoError(t, err)

	_, err = h.Login(ctx, LoginRequest{Username: "caixa", Password: "errada"})
	require.ErrorIs(t, err, ErrBadCredentials)

	_, err = h.Login(ctx, LoginRequest{Username: "ninguem", Password: "12345678"})
	require.ErrorIs(t, err, ErrBadCredentials)
}
