package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/service"
)

const gateSecret = "gate-test-secret-0123456789abcdefghij"

type stubResolver struct {
	users map[string]*domain.User
	err   error
	panic bool
}

func (r *stubResolver) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.panic {
		panic("boom")
	}
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func newResolver() *stubResolver {
	return &stubResolver{users: map[string]*domain.User{
		"alice": {ID: "u-alice", Username: "alice", Roles: []domain.Role{domain.RoleUser}, Active: true},
		"ghost": {ID: "u-ghost", Username: "ghost", Roles: []domain.Role{domain.RoleUser}, Active: false},
	}}
}

func issue(t *testing.T, subject string, at time.Time, ttl time.Duration) string {
	t.Helper()
	tokens := service.NewTokenService(gateSecret, ttl, service.WithClock(func() time.Time { return at }))
	token, _, err := tokens.Issue(subject)
	require.NoError(t, err)
	return token
}

type gateResult struct {
	called bool
	sec    domain.SecurityContext
	err    error
}

func runGate(t *testing.T, resolver *stubResolver, method, path, authorization string) gateResult {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Gate(GateConfig{
		Tokens:         service.NewTokenService(gateSecret, time.Hour),
		Identities:     resolver,
		PublicPaths:    []string{"/api/users/register", "/api/users/signin"},
		PublicPrefixes: []string{"/uploads/"},
		Log:            zerolog.Nop(),
	})

	var res gateResult
	res.err = mw(func(c echo.Context) error {
		res.called = true
		res.sec = SecurityContextFrom(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return res
}

func assertRejected(t *testing.T, res gateResult, code int, message string) {
	t.Helper()
	assert.False(t, res.called, "next handler must not run")
	var he *echo.HTTPError
	require.ErrorAs(t, res.err, &he)
	assert.Equal(t, code, he.Code)
	assert.Equal(t, message, he.Message)
}

func TestGate_Bypass(t *testing.T) {
	cases := []struct{ method, path string }{
		{http.MethodOptions, "/api/users/profile/u-1"},
		{http.MethodPost, "/api/users/register"},
		{http.MethodPost, "/api/users/signin"},
		{http.MethodGet, "/uploads/abc-me.png"},
	}
	for _, tc := range cases {
		res := runGate(t, newResolver(), tc.method, tc.path, "")
		require.NoError(t, res.err, tc.path)
		assert.True(t, res.called, tc.path)
		assert.False(t, res.sec.Authenticated(), tc.path)
	}
}

func TestGate_ValidToken(t *testing.T) {
	token := issue(t, "alice", time.Now(), time.Hour)

	res := runGate(t, newResolver(), http.MethodGet, "/api/users/me", "Bearer "+token)
	require.NoError(t, res.err)
	require.True(t, res.called)
	require.True(t, res.sec.Authenticated())
	assert.Equal(t, "u-alice", res.sec.Identity.ID)
}

func TestGate_Rejections(t *testing.T) {
	valid := issue(t, "alice", time.Now(), time.Hour)

	tests := []struct {
		name     string
		header   string
		resolver func() *stubResolver
		code     int
		message  string
	}{
		{"no header", "", newResolver, http.StatusForbidden, "Missing or invalid Authorization header"},
		{"wrong scheme", "Basic YWxpY2U6cHc=", newResolver, http.StatusForbidden, "Missing or invalid Authorization header"},
		{"empty bearer", "Bearer   ", newResolver, http.StatusForbidden, "Missing or invalid Authorization header"},
		{"garbage", "Bearer not.a.jwt", newResolver, http.StatusUnauthorized, "Malformed token"},
		{"expired", "Bearer " + issue(t, "alice", time.Now().Add(-2*time.Hour), time.Minute), newResolver, http.StatusUnauthorized, "Token expired"},
		{"unknown subject", "Bearer " + issue(t, "mallory", time.Now(), time.Hour), newResolver, http.StatusUnauthorized, "Invalid or expired token"},
		{"inactive subject", "Bearer " + issue(t, "ghost", time.Now(), time.Hour), newResolver, http.StatusUnauthorized, "Invalid or expired token"},
		{
			"store failure", "Bearer " + valid,
			func() *stubResolver { return &stubResolver{err: errors.New("mongo down")} },
			http.StatusUnauthorized, "Unexpected error: mongo down",
		},
		{
			"resolver panic", "Bearer " + valid,
			func() *stubResolver { return &stubResolver{panic: true} },
			http.StatusUnauthorized, "Unexpected error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runGate(t, tt.resolver(), http.MethodGet, "/api/users/profile/u-alice", tt.header)
			assertRejected(t, res, tt.code, tt.message)
		})
	}
}

func TestGate_ForeignSignature(t *testing.T) {
	other := service.NewTokenService("some-other-secret-0123456789abcdefgh", time.Hour)
	token, _, err := other.Issue("alice")
	require.NoError(t, err)

	res := runGate(t, newResolver(), http.MethodGet, "/api/users/me", "Bearer "+token)
	assertRejected(t, res, http.StatusUnauthorized, "Malformed token")
}

func TestSecurityContextFrom_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.False(t, SecurityContextFrom(c).Authenticated())
}
