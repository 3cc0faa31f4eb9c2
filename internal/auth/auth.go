// Package auth handles registration, login and session management. Passwords
// are stored as bcrypt hashes and never compared in plaintext.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tally/internal/core"
	"tally/internal/storage"
)

const MinPasswordLength = 4

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = fmt.Errorf("password too short (min %d chars)", MinPasswordLength)
	ErrUsernameExists     = errors.New("username exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Store is the subset of the repository auth needs.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, string, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	LookupSession(ctx context.Context, token string) (core.User, error)
	DeleteSession(ctx context.Context, token string) error
}

type Service struct {
	store      Store
	bcryptCost int
	sessionTTL time.Duration
}

func NewService(store Store, bcryptCost int, sessionTTL time.Duration) *Service {
	return &Service{
		store:      store,
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
	}
}

// Register creates a new account. The username must be free; a taken name
// fails with ErrUsernameExists. The account is created once and never mutated
// afterwards.
func (s *Service) Register(ctx context.Context, username, password, confirm string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirm == "" {
		return core.User{}, ErrMissingCredentials
	}
	if password != confirm {
		return core.User{}, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return core.User{}, ErrPasswordTooShort
	}

	taken, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return core.User{}, ErrUsernameExists
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "username", username, "id", user.ID)
	return user, nil
}

// Login checks credentials and returns the account. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return core.User{}, ErrMissingCredentials
	}

	user, hash, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}

	if !CheckPassword(password, hash) {
		return core.User{}, ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "User logged in", "username", username, "id", user.ID)
	return user, nil
}

// StartSession issues a session token for an authenticated user.
func (s *Service) StartSession(ctx context.Context, user core.User) (string, time.Time, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := time.Now().Add(s.sessionTTL)
	if err := s.store.CreateSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, expiresAt, nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (core.User, error) {
	return s.store.LookupSession(ctx, token)
}

// EndSession invalidates a session token.
func (s *Service) EndSession(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// HashPassword produces a salted bcrypt hash of the password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
// bcrypt's comparison does not leak timing about how close the guess was.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a random 256-bit token in hex.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
