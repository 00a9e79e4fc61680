package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/config"
)

// CredentialStore verifies role logins.
type CredentialStore interface {
	Verify(ctx context.Context, username, password string, role models.UserRole) (bool, error)
}

type credential struct {
	username string
	hash     []byte
}

// MemoryCredentialStore keeps one bcrypt-hashed credential per role.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	cost  int
	creds map[models.UserRole]credential
}

// NewMemoryCredentialStore hashes the configured role credentials.
func NewMemoryCredentialStore(cfg config.AuthConfig) (*MemoryCredentialStore, error) {
	return newMemoryCredentialStore(cfg, bcrypt.DefaultCost)
}

func newMemoryCredentialStore(cfg config.AuthConfig, cost int) (*MemoryCredentialStore, error) {
	store := &MemoryCredentialStore{cost: cost, creds: make(map[models.UserRole]credential, 3)}
	seed := map[models.UserRole]config.RoleCredential{
		models.RoleAdmin:    cfg.Admin,
		models.RoleLecturer: cfg.Lecturer,
		models.RoleStudent:  cfg.Student,
	}
	for role, rc := range seed {
		if rc.Username == "" {
			continue
		}
		if err := store.Set(role, rc.Username, rc.Password); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Set replaces the credential for role.
func (s *MemoryCredentialStore) Set(role models.UserRole, username, password string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash %s password: %w", role, err)
	}
	s.mu.Lock()
	s.creds[role] = credential{username: strings.TrimSpace(username), hash: hash}
	s.mu.Unlock()
	return nil
}

// Verify reports whether username and password match the credential bound to role.
func (s *MemoryCredentialStore) Verify(_ context.Context, username, password string, role models.UserRole) (bool, error) {
	s.mu.RLock()
	cred, ok := s.creds[role]
	s.mu.RUnlock()
	if !ok || cred.username != strings.TrimSpace(username) {
		return false, nil
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
