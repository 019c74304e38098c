package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

func newTestAuthService(users *memUserStore) *AuthService {
	svc := NewAuthService(users, inlineRunner{}, " Owner@Example.com ")
	svc.hashCost = bcrypt.MinCost
	return svc
}

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()

	users := newMemUserStore()
	svc := newTestAuthService(users)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupRequest{Name: " Ada ", Email: "ADA@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, "password", u.LoginMethod)
	assert.NotEmpty(t, u.OpenID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

	owner, err := svc.Signup(ctx, SignupRequest{Name: "Owner", Email: "owner@example.com", Password: "12345678"})
	require.NoError(t, err)
	assert.True(t, owner.IsAdmin())

	_, err = svc.Signup(ctx, SignupRequest{Name: "Dup", Email: "ada@EXAMPLE.com", Password: "12345678"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestAuthService_Signup_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(newMemUserStore())

	tests := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"short password", SignupRequest{Name: "A", Email: "a@example.com", Password: "short"}, "password"},
		{"bad email", SignupRequest{Name: "A", Email: "nope", Password: "12345678"}, "email"},
		{"missing name", SignupRequest{Email: "a@example.com", Password: "12345678"}, "name"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			require.NotEmpty(t, appErr.FieldErrors)
			assert.Equal(t, tc.field, appErr.FieldErrors[0].Field)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	users := newMemUserStore()
	svc := newTestAuthService(users)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)

	u, err := svc.Login(ctx, LoginRequest{Email: " Ada@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, created.ID, <-users.touched)

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "ada@example.com", Password: "battery staple"}},
		{"unknown email", LoginRequest{Email: "bob@example.com", Password: "correct horse"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.req)
			appErr, ok := apperrors.IsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.CodeInvalidCredentials, appErr.Code)
			assert.Equal(t, apperrors.KindUnauthorized, appErr.Kind())
		})
	}
}

func TestAuthService_Me(t *testing.T) {
	t.Parallel()

	users := newMemUserStore()
	svc := newTestAuthService(users)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "12345678"})
	require.NoError(t, err)

	u, err := svc.Me(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	_, err = svc.Me(ctx, 404)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
