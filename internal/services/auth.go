package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"REMINDME_BACK-END/internal/common"
	"REMINDME_BACK-END/internal/models"
	"REMINDME_BACK-END/internal/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	maxEmailLen    = 255
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

// AuthService owns user registration and credential checks.
type AuthService struct {
	users     repository.UserRepository
	cost      int
	dummyHash []byte
}

// NewAuthService creates an AuthService. cost <= 0 selects bcrypt.DefaultCost.
func NewAuthService(users repository.UserRepository, cost int) *AuthService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	// Used to keep Verify's timing flat for unknown usernames.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("remindme-dummy-password"), cost)
	return &AuthService{users: users, cost: cost, dummyHash: dummy}
}

// Register validates input, hashes the password and inserts the user. A taken
// username is reported as common.ErrConflict by the store.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch n := utf8.RuneCountInString(username); {
	case username == "" || email == "" || password == "":
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	case n < minUsernameLen || n > maxUsernameLen:
		return nil, fmt.Errorf("%w: username must be %d to %d characters", common.ErrValidation, minUsernameLen, maxUsernameLen)
	case !validEmail(email):
		return nil, fmt.Errorf("%w: email is invalid", common.ErrValidation)
	case utf8.RuneCountInString(password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLen)
	case len(password) > maxPasswordBytes:
		return nil, fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Verify checks username and password and returns the matching user.
func (s *AuthService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}
	return u, nil
}

// Profile returns the user with the given id.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// FindOrCreateExternal returns the Google account registered with email,
// creating one on first sign-in with an unusable password. An email already
// claimed by a password account is a conflict: registration never verifies
// the address, so that account is not linked.
func (s *AuthService) FindOrCreateExternal(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrValidation)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		if u.Provider != models.ProviderGoogle {
			return nil, fmt.Errorf("%w: email is registered to a password account", common.ErrConflict)
		}
		return u, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("random password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(secret)), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, &models.User{
		Username:     email,
		Email:        email,
		PasswordHash: string(hash),
		Provider:     models.ProviderGoogle,
	})
}

// validEmail accepts a bare addr-spec such as "a@example.com". Display names
// and angle brackets are rejected.
func validEmail(email string) bool {
	if len(email) > maxEmailLen {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Name == "" && addr.Address == email
}
