package domain

import "time"

// Role is an authority granted to a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User models a registered account. UploadedPicture is the blob the account
// stored through a picture upload; it is the only picture URL the account's
// changes may delete.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Fullname        string    `json:"fullname"`
	ProfilePicture  string    `json:"profilePicture,omitempty"`
	UploadedPicture string    `json:"-"`
	PasswordHash    string    `json:"-"`
	Roles           []Role    `json:"roles"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasRole reports whether the user was granted role.
func (u *User) HasRole(role Role) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NormalizeRoles deduplicates roles and rejects unknown or empty sets.
func NormalizeRoles(roles []Role) ([]Role, error) {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, ErrInvalidInput
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, ErrInvalidInput
	}
	return out, nil
}
