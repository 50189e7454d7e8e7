// Package services contains the server-side business logic sitting between
// the HTTP handlers and the repositories. Services own validation, identity
// normalization and authorization decisions; repositories only move rows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/avolkov/minipost/internal/common"
	"github.com/avolkov/minipost/internal/server/auth"
	sc "github.com/avolkov/minipost/internal/server/config"
	"github.com/avolkov/minipost/internal/server/models"
	"github.com/avolkov/minipost/internal/server/repositories/repomanager"
)

// dummyPassword seeds the hash used to equalize login timing for unknown
// emails. The value itself never authenticates anything.
const dummyPassword = "minipost-login-padding"

var (
	// usernameRegexp runs after normalization, so lowercase is enough.
	usernameRegexp = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
	emailRegexp    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// normalizeIdentity lowercases and trims an identity field. Every lookup and
// every write of usernames and emails goes through this first, so "a@b.c"
// and " A@B.C " land on the same row.
func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
	bcryptCost    int
	dummyHash     string
}

// NewUserService precomputes the dummy hash with the configured cost so the
// burn on the login miss path costs the same as a real comparison.
func NewUserService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) (*UserService, error) {
	dummyHash, err := auth.HashPassword(dummyPassword, config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error preparing dummy hash: %w", err)
	}
	return &UserService{
		db:            db,
		repomanager:   repomanager,
		jwtSecret:     []byte(config.SecretKey),
		tokenValidity: config.TokenValidityDuration,
		bcryptCost:    config.BcryptCost,
		dummyHash:     dummyHash,
	}, nil
}

// Register creates a user and returns it together with a fresh token.
// Duplicates are probed before the password is hashed; the insert still
// races, so a unique violation from the repository maps to the same outcome.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*models.User, string, error) {
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}

	username := normalizeIdentity(p.Username)
	email := normalizeIdentity(p.Email)

	if !usernameRegexp.MatchString(username) {
		return nil, "", fmt.Errorf("%w: username must be 3-30 characters of a-z, 0-9 or _", common.ErrValidation)
	}
	if !emailRegexp.MatchString(email) {
		return nil, "", fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	if len(p.Password) < 8 || len(p.Password) > 72 {
		return nil, "", fmt.Errorf("%w: password must be 8 to 72 bytes", common.ErrValidation)
	}

	repo := s.repomanager.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("%w: email already in use", common.ErrAlreadyExists)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", fmt.Errorf("error checking email: %w", err)
	}

	hash, err := auth.HashPassword(p.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, "", fmt.Errorf("%w: username or email already in use", common.ErrAlreadyExists)
		}
		return nil, "", fmt.Errorf("error creating user: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token. An
// unknown email and a wrong password return the same error, and the unknown
// email path still burns one bcrypt comparison so the two cases cannot be
// told apart by timing either.
func (s *UserService) Login(ctx context.Context, email string, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, normalizeIdentity(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			auth.VerifyPassword(s.dummyHash, password)
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error finding user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

// GetByID loads a user without the password hash. The HTTP auth gate uses it
// to resolve token subjects.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}
