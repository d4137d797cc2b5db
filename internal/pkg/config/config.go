package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

const minSecretLen = 32

type Config struct {
	Port               string   `env:"PORT,      default=8080"`
	Env                string   `env:"ENV,       default=development"`
	LogLevel           string   `env:"LOG_LEVEL, default=info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Uploads   UploadConfig
	RateLimit RateLimitConfig
	Admin     AdminConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET, required"`
	JWTTTL     time.Duration `env:"JWT_TTL,     default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI         string        `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string        `env:"MONGO_DB,            default=accounts"`
	Timeout     time.Duration `env:"MONGO_TIMEOUT,       default=10s"`
	MaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE, default=50"`
	MinPoolSize uint64        `env:"MONGO_MIN_POOL_SIZE, default=0"`
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,         default=localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,           default=0"`
	IdentityTTL time.Duration `env:"IDENTITY_CACHE_TTL, default=1m"`
}

type UploadConfig struct {
	Dir            string `env:"UPLOAD_DIR,      default=./uploads"`
	MaxSize        string `env:"UPLOAD_MAX_SIZE, default=10M"`
	CleanupWorkers int    `env:"CLEANUP_WORKERS, default=4"`
}

type RateLimitConfig struct {
	SignInRate  float64 `env:"SIGNIN_RATE_LIMIT, default=5"`
	SignInBurst int     `env:"SIGNIN_RATE_BURST, default=10"`
}

// AdminConfig describes an optional account granted ADMIN at startup.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Enabled reports whether any admin bootstrap setting was provided.
func (a AdminConfig) Enabled() bool {
	return a.Username != "" || a.Email != "" || a.Password != ""
}

func (a AdminConfig) complete() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks constraints envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RateLimit.SignInRate <= 0 || c.RateLimit.SignInBurst <= 0 {
		errs = append(errs, errors.New("SIGNIN_RATE_LIMIT and SIGNIN_RATE_BURST must be positive"))
	}
	if c.Admin.Enabled() && !c.Admin.complete() {
		errs = append(errs, errors.New("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if c.Mongo.Timeout <= 0 {
		errs = append(errs, errors.New("MONGO_TIMEOUT must be positive"))
	}
	if c.Mongo.MinPoolSize > c.Mongo.MaxPoolSize && c.Mongo.MaxPoolSize != 0 {
		errs = append(errs, errors.New("MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE"))
	}

	return errors.Join(errs...)
}
