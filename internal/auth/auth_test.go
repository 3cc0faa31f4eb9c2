package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/core"
	"tally/internal/storage"
)

// fakeStore keeps accounts and sessions in memory.
type fakeStore struct {
	users    map[string]fakeUser
	sessions map[string]fakeSession
	nextID   int64
}

type fakeUser struct {
	user core.User
	hash string
}

type fakeSession struct {
	userID    int64
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]fakeUser),
		sessions: make(map[string]fakeSession),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, username, passwordHash string) (core.User, error) {
	f.nextID++
	user := core.User{ID: f.nextID, Username: username}
	f.users[username] = fakeUser{user: user, hash: passwordHash}
	return user, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (core.User, string, error) {
	u, ok := f.users[username]
	if !ok {
		return core.User{}, "", storage.ErrNotFound
	}
	return u.user, u.hash, nil
}

func (f *fakeStore) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeStore) CreateSession(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	f.sessions[token] = fakeSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) LookupSession(_ context.Context, token string) (core.User, error) {
	sess, ok := f.sessions[token]
	if !ok || sess.expiresAt.Before(time.Now()) {
		return core.User{}, storage.ErrNotFound
	}
	for _, u := range f.users {
		if u.user.ID == sess.userID {
			return u.user, nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (f *fakeStore) DeleteSession(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, bcrypt.MinCost, time.Hour)
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	user, err := svc.Register(context.Background(), "alice", "secret99", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotZero(t, user.ID)

	stored := store.users["alice"]
	assert.NotEqual(t, "secret99", stored.hash)
	assert.True(t, CheckPassword("secret99", stored.hash))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret99", "secret99")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "different", "different")
	assert.ErrorIs(t, err, ErrUsernameExists)
	assert.EqualError(t, ErrUsernameExists, "username exists")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		confirm  string
		want     error
	}{
		{"empty username", "", "secret99", "secret99", ErrMissingCredentials},
		{"blank username", "   ", "secret99", "secret99", ErrMissingCredentials},
		{"empty password", "alice", "", "", ErrMissingCredentials},
		{"mismatched confirmation", "alice", "secret99", "secret98", ErrPasswordMismatch},
		{"short password", "alice", "abc", "abc", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "secret99", "secret99")
	require.NoError(t, err)

	user, err := svc.Login(ctx, "alice", "secret99")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown usernames and wrong passwords look the same to the caller.
	_, err = svc.Login(ctx, "mallory", "secret99")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "secret99", "secret99")
	require.NoError(t, err)

	token, expiresAt, err := svc.StartSession(ctx, user)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.True(t, expiresAt.After(time.Now()))

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, svc.EndSession(ctx, token))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("secret99", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("secret99", bcrypt.MinCost)
	require.NoError(t, err)

	// Same password, different salt, different hash. Both still verify.
	assert.NotEqual(t, first, second)
	assert.True(t, CheckPassword("secret99", first))
	assert.True(t, CheckPassword("secret99", second))
	assert.False(t, CheckPassword("other", first))
}

func TestGenerateSessionTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		token, err := GenerateSessionToken()
		require.NoError(t, err)
		require.Len(t, token, 64)
		require.False(t, seen[token])
		seen[token] = true
	}
}
