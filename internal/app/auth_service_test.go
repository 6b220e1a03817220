package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentboard/internal/model"
	"agentboard/internal/pkg/jwtutil"
)

const testSecret = "test-secret"

func newAuthService() (*AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	return NewAuthService(store, testSecret, time.Hour), store
}

func TestRegisterCreatesFreeUserWithToken(t *testing.T) {
	svc, store := newAuthService()

	result, err := svc.Register(RegisterInput{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada", result.User.Username)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.Equal(t, model.PlanFree, result.User.Plan)
	assert.NotEqual(t, "correct horse", result.User.PasswordHash)

	claims, err := jwtutil.ParseToken(testSecret, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	stored, err := store.GetByUsername("ada")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRegisterRejectsDuplicatesAndWeakInput(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(RegisterInput{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "ada", Email: "other@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "ada2", Email: "ada@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Register(RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _ := newAuthService()

	_, err := svc.Register(RegisterInput{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	result, err := svc.Login(LoginInput{Username: "ada", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(LoginInput{Username: "ada", Password: "wrong horse"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestUpdateProfile(t *testing.T) {
	svc, store := newAuthService()

	result, err := svc.Register(RegisterInput{Username: "ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(UpdateProfileInput{
		UserID:      result.User.ID,
		DisplayName: "Ada L.",
		Settings:    map[string]interface{}{"theme": "dark"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.DisplayName)
	assert.Equal(t, "dark", updated.SettingsMap()["theme"])

	stored, err := store.GetByID(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", stored.DisplayName)

	_, err = svc.UpdateProfile(UpdateProfileInput{UserID: 99, DisplayName: "ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
