package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// emailPattern accepts a single '@' with a non-empty local part.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[^@]+$`)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// IsEmail reports whether s looks like an email address rather than a username.
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Authenticator checks a username-or-email and password against the user store.
type Authenticator struct {
	users  ports.UserStore
	hasher PasswordHasher
	// dummy is compared against when no account matches, so a missing
	// account costs the same hashing work as a wrong password.
	dummy string
}

func NewAuthenticator(users ports.UserStore, hasher PasswordHasher) *Authenticator {
	dummy, _ := hasher.Hash("accounts-api/no-such-user")
	return &Authenticator{users: users, hasher: hasher, dummy: dummy}
}

// Authenticate returns the matching account, or domain.ErrInvalidCredentials
// when the account does not exist or the password is wrong.
func (a *Authenticator) Authenticate(ctx context.Context, usernameOrEmail, password string) (*domain.User, error) {
	if usernameOrEmail == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	var (
		user *domain.User
		err  error
	)
	if IsEmail(usernameOrEmail) {
		user, err = a.users.FindByEmail(ctx, usernameOrEmail)
	} else {
		user, err = a.users.FindByUsername(ctx, usernameOrEmail)
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		a.hasher.Verify(password, a.dummy)
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !a.hasher.Verify(password, user.PasswordHash) || !user.Active {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
