package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

const defaultTokenTTL = 24 * time.Hour

// TokenService issues and validates HS256 bearer tokens. The secret and TTL
// are fixed at construction and never change afterwards.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Claims are checked by hand against s.now once the signature holds.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject valid for the configured TTL.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("issue token: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt.Truncate(time.Second), nil
}

// Validate checks signature, expiry and subject, in that order.
func (s *TokenService) Validate(token, expectedSubject string) error {
	claims, err := s.verify(token)
	if err != nil {
		return err
	}
	if claims.Subject != expectedSubject {
		return domain.ErrTokenSubjectMismatch
	}
	return nil
}

// ExtractSubject returns the subject of a token whose signature and expiry hold.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	claims, err := s.verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *TokenService) verify(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenMalformed
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenMalformed
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrTokenMalformed
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	return claims, nil
}
