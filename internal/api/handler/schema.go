package handler

import (
	"time"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// --- Request / Response types ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=20"`
	Email    string `json:"email"    validate:"required,email"`
	Fullname string `json:"fullname" validate:"required,min=1,max=20"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

// signInRequest accepts either a username or an email in Username. Missing or
// short credentials are left to the authenticator so every credential failure
// gets the same response.
type signInRequest struct {
	Username string `json:"username" validate:"max=254"`
	Password string `json:"password" validate:"max=1024"`
}

type signInResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *domain.User `json:"user"`
}

type updateProfileRequest struct {
	Fullname       string `json:"fullname"       validate:"omitempty,min=1,max=20"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,max=2048"`
}

type setRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=USER ADMIN"`
}

// apiResponse is the success envelope.
type apiResponse struct {
	Message       string `json:"message"`
	Status        int    `json:"status"`
	StatusMessage string `json:"statusMessage"`
	Path          string `json:"path"`
	Data          any    `json:"data,omitempty"`
}

func (r registerRequest) toInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username: r.Username,
		Email:    r.Email,
		Fullname: r.Fullname,
		Password: r.Password,
	}
}

func (r setRolesRequest) toRoles() []domain.Role {
	roles := make([]domain.Role, len(r.Roles))
	for i, role := range r.Roles {
		roles[i] = domain.Role(role)
	}
	return roles
}
