package ports

import (
	"context"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// UserStore defines persistence for accounts. Lookups return
// domain.ErrUserNotFound when no account matches.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Save inserts the user when ID is empty and replaces it otherwise.
	// Unique username/email violations surface as domain.ErrUserExists.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	DeleteByID(ctx context.Context, id string) error
}

// IdentityResolver resolves a token subject to a live account.
type IdentityResolver interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}

// IdentityCache drops cached identities after the account changed.
type IdentityCache interface {
	Invalidate(ctx context.Context, username string) error
}
