package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/testutil"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	store := testutil.OpenSQLiteStore(t)
	return NewAuthService(store.Users(), bcrypt.MinCost)
}

func TestRegister(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Positive(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))

	_, err = svc.Register(ctx, "alice", "other@example.com", "another-pw")
	assert.ErrorIs(t, err, common.ErrConflict)

	u, err = svc.Register(ctx, "bob", strings.Repeat("b", 240)+"@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, models.ProviderPassword, u.Provider)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "  ", "a@example.com", "secret"},
		{"missing email", "alice", "", "secret"},
		{"missing password", "alice", "a@example.com", ""},
		{"short username", "al", "a@example.com", "secret"},
		{"long username", strings.Repeat("a", 51), "a@example.com", "secret"},
		{"short password", "alice", "a@example.com", "12345"},
		{"long password", "alice", "a@example.com", strings.Repeat("x", 73)},
		{"bad email", "alice", "not-an-email", "secret"},
		{"email without domain", "alice", "alice@", "secret"},
		{"email with display name", "alice", "Alice <a@example.com>", "secret"},
		{"email with spaces", "alice", "a b@example.com", "secret"},
		{"long email", "alice", strings.Repeat("a", 250) + "@example.com", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestVerify(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := svc.Verify(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	_, err = svc.Verify(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = svc.Verify(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := svc.Profile(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.Profile(ctx, registered.ID+1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindOrCreateExternal(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	created, err := svc.FindOrCreateExternal(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", created.Username)
	assert.Equal(t, models.ProviderGoogle, created.Provider)

	again, err := svc.FindOrCreateExternal(ctx, "Bob@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	// a Google account cannot be signed into with a password
	_, err = svc.Verify(ctx, "bob@example.com", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = svc.FindOrCreateExternal(ctx, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestFindOrCreateExternalRejectsPasswordAccount(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	mallory, err := svc.Register(ctx, "mallory", "alice@gmail.com", "known-pw")
	require.NoError(t, err)

	_, err = svc.FindOrCreateExternal(ctx, "Alice@Gmail.com")
	assert.ErrorIs(t, err, common.ErrConflict)

	// the password account is untouched and still owned by its registrant
	u, err := svc.Verify(ctx, "mallory", "known-pw")
	require.NoError(t, err)
	assert.Equal(t, mallory.ID, u.ID)
	assert.Equal(t, models.ProviderPassword, u.Provider)
}
