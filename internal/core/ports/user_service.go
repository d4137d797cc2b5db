package ports

import (
	"context"
	"io"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// UpdateProfileInput holds optional profile changes; blank fields are left untouched.
type UpdateProfileInput struct {
	Fullname       string
	ProfilePicture string
}

// UploadInput is a file received from a client.
type UploadInput struct {
	Filename string
	Body     io.Reader
}

// UserService defines profile use cases. Every mutating call receives the
// caller's SecurityContext and applies the self-or-admin rule.
type UserService interface {
	GetProfile(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, sec domain.SecurityContext, id string, in UpdateProfileInput) (*domain.User, error)
	DeleteProfile(ctx context.Context, sec domain.SecurityContext, id string) error
	UploadProfilePicture(ctx context.Context, sec domain.SecurityContext, id string, in UploadInput) (*BlobInfo, error)
	UploadFile(ctx context.Context, sec domain.SecurityContext, in UploadInput) (*BlobInfo, error)
	SetRoles(ctx context.Context, sec domain.SecurityContext, id string, roles []domain.Role) (*domain.User, error)
}
