package clcaclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSigner produces the short-lived bearer credential attached to every
// outbound request. Injected so tests can substitute a deterministic signer.
type TokenSigner interface {
	SignedToken(requestID string) (string, error)
}

// HMACSigner signs HS256 tokens with the pre-shared secret held by this
// system and CLCA.
type HMACSigner struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewHMACSigner(secret, issuer, audience string, ttl time.Duration) *HMACSigner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HMACSigner{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *HMACSigner) SignedToken(requestID string) (string, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"scope": "ingest:content",
		"iss":   s.issuer,
		"aud":   s.audience,
		"exp":   now.Add(s.ttl).Unix(),
		"iat":   now.Unix(),
		"jti":   requestID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
