package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := testHasher()

	digest, err := h.Hash("pw1234")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1234", digest)
	assert.True(t, h.Verify("pw1234", digest))
	assert.False(t, h.Verify("pw12345", digest))

	again, err := h.Hash("pw1234")
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "each hash must carry its own salt")
	assert.True(t, h.Verify("pw1234", again))
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	h := testHasher()
	for _, digest := range []string{"", "plain", "$2a$10$short", "$9z$xx$" + string(make([]byte, 53))} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("pw1234", digest))
		})
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestIsEmail(t *testing.T) {
	cases := map[string]bool{
		"alice@x.com":       true,
		"a.b+tag@host":      true,
		"alice":             false,
		"@x.com":            false,
		"alice@":            false,
		"alice@x@y.com":     false,
		"al ice@x.com":      false,
		"":                  false,
		"under_score@x.org": true,
	}
	for in, want := range cases {
		assert.Equalf(t, want, IsEmail(in), "IsEmail(%q)", in)
	}
}

func seedAlice(t *testing.T, store *stubUserStore, h PasswordHasher) *domain.User {
	t.Helper()
	digest, err := h.Hash("pw1234")
	require.NoError(t, err)
	return store.seed(&domain.User{
		ID:           "u-alice",
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: digest,
		Roles:        []domain.Role{domain.RoleUser},
		Active:       true,
	})
}

func TestAuthenticator_ByUsernameAndEmail(t *testing.T) {
	store := newStubUserStore()
	h := testHasher()
	seedAlice(t, store, h)
	authn := NewAuthenticator(store, h)

	for _, id := range []string{"alice", "alice@x.com"} {
		user, err := authn.Authenticate(context.Background(), id, "pw1234")
		require.NoError(t, err, id)
		assert.Equal(t, "u-alice", user.ID)
	}
}

func TestAuthenticator_FailuresAreIndistinguishable(t *testing.T) {
	store := newStubUserStore()
	h := testHasher()
	seedAlice(t, store, h)
	authn := NewAuthenticator(store, h)

	cases := []struct{ id, password string }{
		{"alice", "wrong"},
		{"alice@x.com", "wrong"},
		{"bob", "pw1234"},
		{"bob@x.com", "pw1234"},
		{"", "pw1234"},
		{"alice", ""},
	}
	for _, tc := range cases {
		user, err := authn.Authenticate(context.Background(), tc.id, tc.password)
		assert.Nil(t, user)
		assert.Equal(t, domain.ErrInvalidCredentials, err, "%s/%s", tc.id, tc.password)
	}
}

func TestAuthenticator_InactiveAccount(t *testing.T) {
	store := newStubUserStore()
	h := testHasher()
	alice := seedAlice(t, store, h)
	alice.Active = false
	store.seed(alice)

	_, err := NewAuthenticator(store, h).Authenticate(context.Background(), "alice", "pw1234")
	assert.Equal(t, domain.ErrInvalidCredentials, err)
}

func TestAuthenticator_StoreFailurePropagates(t *testing.T) {
	store := newStubUserStore()
	store.findErr = errors.New("connection refused")

	_, err := NewAuthenticator(store, testHasher()).Authenticate(context.Background(), "alice", "pw1234")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "connection refused")
}
