package domain

import "errors"

// Account errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidInput       = errors.New("invalid input")
)

// Authorization errors.
var (
	ErrForbidden        = errors.New("access forbidden")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// Token errors.
var (
	ErrTokenMalformed       = errors.New("malformed token")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenSubjectMismatch = errors.New("token subject mismatch")
)
