package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	defaultIdentityTTL = time.Minute
	// versionTTL bounds how long an invalidation generation is remembered. It
	// only has to outlive a single in-flight lookup.
	versionTTL = time.Hour
)

// fillScript stores the identity only if no invalidation ran since the
// lookup read the generation counter.
//
// KEYS[1] generation key, KEYS[2] identity key
// ARGV[1] generation seen, ARGV[2] payload, ARGV[3] ttl in ms
var fillScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[1]) or ""
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// cachedIdentity is what the gate needs to authorize a request. The password
// hash never leaves the primary store.
type cachedIdentity struct {
	ID       string        `json:"id"`
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Roles    []domain.Role `json:"roles"`
	Active   bool          `json:"active"`
}

// IdentityCache is a read-through cache in front of an identity resolver.
// Key format: identity:<username>, generation: identity:gen:<username>
//
// Invalidate bumps the generation, and a lookup only fills the cache when the
// generation it saw before reading the resolver is still current. Redis
// failures never fail a lookup; the resolver is consulted instead.
type IdentityCache struct {
	client *redis.Client
	next   ports.IdentityResolver
	ttl    time.Duration
	log    zerolog.Logger
}

// NewIdentityCache wraps next. A non-positive ttl falls back to one minute.
func NewIdentityCache(client *redis.Client, next ports.IdentityResolver, ttl time.Duration, log zerolog.Logger) *IdentityCache {
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &IdentityCache{client: client, next: next, ttl: ttl, log: log}
}

// FindByUsername serves the identity from Redis when present, otherwise loads
// it from the resolver and caches it. Unknown users are not cached.
func (c *IdentityCache) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	key := c.key(username)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var id cachedIdentity
		if jsonErr := json.Unmarshal(raw, &id); jsonErr == nil {
			return id.toDomain(), nil
		}
		c.log.Warn().Str("key", key).Msg("discarding unreadable identity cache entry")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("identity cache read failed")
	}

	genKey := c.genKey(username)
	gen, genErr := c.client.Get(ctx, genKey).Result()
	if errors.Is(genErr, redis.Nil) {
		gen, genErr = "", nil
	}

	user, err := c.next.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	// Without a known generation a fill could resurrect an invalidated entry.
	if genErr != nil {
		c.log.Warn().Err(genErr).Str("key", genKey).Msg("identity cache generation read failed, not caching")
		return user, nil
	}

	payload, err := json.Marshal(fromDomain(user))
	if err == nil {
		err = fillScript.Run(ctx, c.client, []string{genKey, key}, gen, payload, c.ttl.Milliseconds()).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("identity cache write failed")
	}
	return user, nil
}

// Invalidate drops the cached identity for username and starts a new
// generation so lookups already in flight do not store what they loaded.
func (c *IdentityCache) Invalidate(ctx context.Context, username string) error {
	genKey := c.genKey(username)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, versionTTL)
		pipe.Del(ctx, c.key(username))
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity cache invalidate: %w", err)
	}
	return nil
}

func (c *IdentityCache) key(username string) string {
	return "identity:" + username
}

func (c *IdentityCache) genKey(username string) string {
	return "identity:gen:" + username
}

func fromDomain(u *domain.User) cachedIdentity {
	return cachedIdentity{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    u.Roles,
		Active:   u.Active,
	}
}

func (c cachedIdentity) toDomain() *domain.User {
	return &domain.User{
		ID:       c.ID,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
		Active:   c.Active,
	}
}
