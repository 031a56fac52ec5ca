package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-decks/internal/domain"
	"github.com/phrazzld/scry-decks/internal/service/auth"
	"github.com/phrazzld/scry-decks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) UserService {
	t.Helper()
	f := newFixture(t)
	svc, err := NewUserService(f.users, f.db, auth.NewBcryptVerifier(), bcrypt.MinCost, quietLogger())
	require.NoError(t, err)
	return svc
}

func TestNewUserServiceRequiresDependencies(t *testing.T) {
	f := newFixture(t)
	_, err := NewUserService(nil, f.db, nil, 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = NewUserService(f.users, nil, nil, 0, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	user, err := svc.CreateUser(ctx, "Learner@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.Empty(t, user.Password)
	assert.NotEqual(t, "correct-horse-battery", user.HashedPassword)

	got, err := svc.Authenticate(ctx, "learner@example.com", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "learner@example.com", "wrong-password-here")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	fetched, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, fetched.Email)

	_, err = svc.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestCreateUserErrors(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(t)

	_, err := svc.CreateUser(ctx, "not-an-email", "correct-horse-battery")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.CreateUser(ctx, "short@example.com", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	_, err = svc.CreateUser(ctx, "dup@example.com", "correct-horse-battery")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "dup@example.com", "correct-horse-battery")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}
