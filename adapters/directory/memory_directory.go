// Package directory holds UserDirectory adapters. Account storage proper
// is an external collaborator; the in-memory adapter exists so the gate can
// be wired and tested without one.
package directory

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/ports"
)

// MemoryDirectory is an in-memory implementation of the UserDirectory
// interface holding bcrypt-hashed credentials.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]core.User // keyed by lower-cased email
}

// NewMemoryDirectory creates a new in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[string]core.User),
	}
}

var _ ports.UserDirectory = (*MemoryDirectory)(nil)

// AddUser registers an account with a plaintext password, hashing it with
// bcrypt before storing.
func (d *MemoryDirectory) AddUser(id, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[strings.ToLower(email)] = core.User{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
	}
	return nil
}

// FindByEmail returns the account for the email, or ErrInvalidCredentials.
func (d *MemoryDirectory) FindByEmail(ctx context.Context, email string) (core.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[strings.ToLower(email)]
	if !ok {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}
