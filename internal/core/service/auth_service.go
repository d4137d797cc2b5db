package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// AuthService implements registration and sign-in.
type AuthService struct {
	users  ports.UserStore
	hasher PasswordHasher
	authn  *Authenticator
	tokens *TokenService
	log    zerolog.Logger
}

func NewAuthService(users ports.UserStore, hasher PasswordHasher, tokens *TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		authn:  NewAuthenticator(users, hasher),
		tokens: tokens,
		log:    log,
	}
}

// Register opens a USER account. It fails with domain.ErrUserExists when the
// username or email is already taken.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, []domain.Role{domain.RoleUser})
}

// SignIn authenticates by username or email and issues a bearer token whose
// subject is the account's username.
func (s *AuthService) SignIn(ctx context.Context, usernameOrEmail, password string) (*ports.SignInResult, error) {
	user, err := s.authn.Authenticate(ctx, strings.TrimSpace(usernameOrEmail), password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user signed in")
	return &ports.SignInResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// EnsureAdmin makes sure an account with ADMIN exists for in.Username,
// creating it or granting the role as needed.
func (s *AuthService) EnsureAdmin(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	existing, err := s.users.FindByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return s.create(ctx, in, []domain.Role{domain.RoleUser, domain.RoleAdmin})
	case err != nil:
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	if existing.HasRole(domain.RoleAdmin) {
		return existing, nil
	}
	existing.Roles = append(existing.Roles, domain.RoleAdmin)
	existing.UpdatedAt = time.Now().UTC()
	return s.users.Save(ctx, existing)
}

func (s *AuthService) create(ctx context.Context, in ports.RegisterInput, roles []domain.Role) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	taken, err := s.isUsernameOrEmailTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUserExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.users.Save(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		Fullname:     strings.TrimSpace(in.Fullname),
		PasswordHash: hash,
		Roles:        roles,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

func (s *AuthService) isUsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("check email: %w", err)
	}
	return false, nil
}
