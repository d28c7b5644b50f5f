package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type mockRevoker struct {
	mock.Mock
}

func (m *mockRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *mockRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func registerRequest() *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     "alice@example.com",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Liddell",
		Password:  "wonderland42",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	revoker := new(mockRevoker)
	revoker.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil)
	auth := service.NewAuthService(db, "test-secret", time.Hour, revoker)

	user, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.NotEqual(t, "wonderland42", user.PasswordHash)
	assert.False(t, user.IsAdmin())

	token, err := auth.Login(ctx, "ALICE@example.com", "wonderland42")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = auth.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@example.com", "wonderland42")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterDuplicate(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)

	_, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	sameEmail := registerRequest()
	sameEmail.Username = "alice2"
	_, err = auth.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, service.ErrDuplicate)
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	sameUsername := registerRequest()
	sameUsername.Email = "other@example.com"
	_, err = auth.Register(ctx, sameUsername)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestValidateTokenRejections(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "alice")

	expired := service.NewAuthService(db, "test-secret", -time.Minute, nil)
	token, err := expired.GenerateToken(user)
	require.NoError(t, err)
	_, err = expired.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	signer := service.NewAuthService(db, "other-secret", time.Hour, nil)
	token, err = signer.GenerateToken(user)
	require.NoError(t, err)
	verifier := service.NewAuthService(db, "test-secret", time.Hour, nil)
	_, err = verifier.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = verifier.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "alice")
	revoker := new(mockRevoker)
	auth := service.NewAuthService(db, "test-secret", time.Hour, revoker)

	token, err := auth.GenerateToken(user)
	require.NoError(t, err)

	revoker.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil).Once()
	claims, err := auth.ValidateToken(ctx, token)
	require.NoError(t, err)

	revoker.On("Revoke", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= time.Hour
	})).Return(nil).Once()
	require.NoError(t, auth.Logout(ctx, claims))

	revoker.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil).Once()
	_, err = auth.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	revoker.AssertExpectations(t)
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateUser(t, db, "alice")
	auth := service.NewAuthService(db, "test-secret", time.Hour, nil)

	err := auth.SetPassword(ctx, user.ID, "wrong", "newpassword1")
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "current_password", verr.Field)

	require.NoError(t, auth.SetPassword(ctx, user.ID, testhelpers.TestPassword, "newpassword1"))

	_, err = auth.Login(ctx, user.Email, testhelpers.TestPassword)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, user.Email, "newpassword1")
	assert.NoError(t, err)
}
