// Package services holds the business layer between delivery and
// storage: credential handling and the ledger facade.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"momoledger/internal/core"
	"momoledger/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

// BootstrapAdminUsername is the fixed username ensured on every start.
const BootstrapAdminUsername = "admin"

// CredentialService manages user accounts and authentication.
type CredentialService struct {
	storage           *storage.SQLiteRepository
	bootstrapPassword string
}

func NewCredentialService(storage *storage.SQLiteRepository, bootstrapPassword string) *CredentialService {
	return &CredentialService{
		storage:           storage,
		bootstrapPassword: bootstrapPassword,
	}
}

// Initialize ensures the default admin account exists. Idempotent: called
// on every process start, it creates the admin at most once. Schema setup
// itself happens in storage migrations.
func (s *CredentialService) Initialize(ctx context.Context) error {
	_, _, err := s.storage.CredentialByUsername(ctx, BootstrapAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrReferential) {
		return fmt.Errorf("check admin account: %w", err)
	}

	hash, err := hashPassword(s.bootstrapPassword)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	if _, err := s.storage.CreateUser(ctx, BootstrapAdminUsername, hash, core.RoleAdmin); err != nil {
		// A concurrent start may have won the race; that still satisfies
		// the bootstrap invariant.
		if errors.Is(err, core.ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("create admin account: %w", err)
	}

	slog.InfoContext(ctx, "Bootstrap admin account created", "username", BootstrapAdminUsername)
	return nil
}

// AddUser creates an account after business validation. Duplicate
// usernames surface as core.ErrUsernameTaken with no row created.
func (s *CredentialService) AddUser(ctx context.Context, username, password string, role core.Role) (core.User, error) {
	username, err := core.ValidateUsername(username)
	if err != nil {
		return core.User{}, err
	}
	if len(password) < core.MinPasswordLength {
		return core.User{}, core.ErrPasswordTooShort
	}
	if !role.Valid() {
		return core.User{}, core.ErrInvalidRole
	}

	hash, err := hashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.storage.CreateUser(ctx, username, hash, role)
}

// Verify authenticates a username/password pair. Unknown usernames and
// wrong passwords are indistinguishable to the caller: both surface as
// core.ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (core.User, error) {
	user, hash, err := s.storage.CredentialByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrReferential) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Password verification failed", "username", username)
		return core.User{}, core.ErrInvalidCredentials
	}

	return user, nil
}

// ListAgents returns all agent accounts, alphabetical by username.
func (s *CredentialService) ListAgents(ctx context.Context) ([]core.User, error) {
	return s.storage.ListAgents(ctx)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
