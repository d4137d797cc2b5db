package ports

import (
	"context"
	"time"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// RegisterInput carries the data needed to open an account.
type RegisterInput struct {
	Username string
	Email    string
	Fullname string
	Password string
}

// SignInResult is returned after a successful sign-in.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	SignIn(ctx context.Context, usernameOrEmail, password string) (*SignInResult, error)
}
