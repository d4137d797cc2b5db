package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	signInFn   func(ctx context.Context, id, password string) (*ports.SignInResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) SignIn(ctx context.Context, id, password string) (*ports.SignInResult, error) {
	return s.signInFn(ctx, id, password)
}

func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, code, he.Code)
	return he
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			assert.Equal(t, ports.RegisterInput{Username: "alice", Email: "alice@x.com", Fullname: "Alice", Password: "pw1234"}, in)
			return &domain.User{ID: "u-1", Username: in.Username, Email: in.Email, PasswordHash: "$2a$hash", Roles: []domain.Role{domain.RoleUser}}, nil
		},
	}
	c, rec := newJSONContext(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"alice@x.com","fullname":"Alice","password":"pw1234"}`)

	require.NoError(t, NewAuthHandler(stub, zerolog.Nop()).Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "User registered successfully", resp["message"])
	assert.Equal(t, "Created", resp["statusMessage"])
	assert.Equal(t, "/api/users/register", resp["path"])

	user := resp["data"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$hash")
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}

	cases := map[string]string{
		"short username": `{"username":"al","email":"alice@x.com","fullname":"Alice","password":"pw1234"}`,
		"bad email":      `{"username":"alice","email":"nope","fullname":"Alice","password":"pw1234"}`,
		"short password": `{"username":"alice","email":"alice@x.com","fullname":"Alice","password":"pw"}`,
		"long fullname":  `{"username":"alice","email":"alice@x.com","fullname":"` + strings.Repeat("a", 21) + `","password":"pw1234"}`,
		"not json":       `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newJSONContext(http.MethodPost, "/api/users/register", body)
			requireHTTPError(t, NewAuthHandler(stub, zerolog.Nop()).Register(c), http.StatusBadRequest)
		})
	}
}

func TestAuthHandler_Register_ValidationMessageUsesJSONNames(t *testing.T) {
	c, _ := newJSONContext(http.MethodPost, "/api/users/register", `{"username":"alice","email":"alice@x.com","password":"pw1234"}`)

	he := requireHTTPError(t, NewAuthHandler(&stubAuthService{}, zerolog.Nop()).Register(c), http.StatusBadRequest)
	assert.Equal(t, "fullname is required", he.Message)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubAuthService{registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
		return nil, domain.ErrUserExists
	}}
	c, _ := newJSONContext(http.MethodPost, "/api/users/register",
		`{"username":"alice","email":"alice@x.com","fullname":"Alice","password":"pw1234"}`)

	assert.ErrorIs(t, NewAuthHandler(stub, zerolog.Nop()).Register(c), domain.ErrUserExists)
}

func TestAuthHandler_SignIn(t *testing.T) {
	expires := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	stub := &stubAuthService{signInFn: func(_ context.Context, id, password string) (*ports.SignInResult, error) {
		if id == "alice@x.com" && password == "pw1234" {
			return &ports.SignInResult{Token: "tok", ExpiresAt: expires, User: &domain.User{ID: "u-1", Username: "alice"}}, nil
		}
		return nil, domain.ErrInvalidCredentials
	}}
	h := NewAuthHandler(stub, zerolog.Nop())

	c, rec := newJSONContext(http.MethodPost, "/api/users/signin", `{"username":"alice@x.com","password":"pw1234"}`)
	require.NoError(t, h.SignIn(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string         `json:"message"`
		Data    signInResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sign-in successful", resp.Message)
	assert.Equal(t, "tok", resp.Data.Token)
	assert.True(t, expires.Equal(resp.Data.ExpiresAt))
	assert.Equal(t, "alice", resp.Data.User.Username)

	c, _ = newJSONContext(http.MethodPost, "/api/users/signin", `{"username":"alice@x.com","password":"nope"}`)
	assert.ErrorIs(t, h.SignIn(c), domain.ErrInvalidCredentials)
}
