package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "myace"

// DefaultTokenTTL is how long an issued session token remains valid. Expired
// tokens require a fresh login; there is no refresh flow.
const DefaultTokenTTL = 30 * 24 * time.Hour

// TokenCodec signs and verifies session tokens. The HMAC key is fixed at
// construction and never rotated within a process lifetime. A token asserts
// identity only; it carries no roles or permissions.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenCodec constructs a codec around the process-wide signing key.
func NewTokenCodec(key string) (*TokenCodec, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("token signing key is required")
	}
	return &TokenCodec{key: []byte(key), ttl: DefaultTokenTTL, now: time.Now}, nil
}

// WithClock overrides the codec's time source. Only intended for tests.
func (c *TokenCodec) WithClock(fn func() time.Time) *TokenCodec {
	if fn != nil {
		c.now = fn
	}
	return c
}

// Issue signs a token asserting the given identity.
func (c *TokenCodec) Issue(identity uuid.UUID) (string, error) {
	if identity == uuid.Nil {
		return "", errors.New("identity is required")
	}
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   identity.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Verify checks the token signature and decodes the asserted identity. The
// signature is validated before the payload is interpreted, so a forged token
// is rejected without revealing anything about its contents. Signature and
// payload failures are reported as distinct errors for observability; both
// unwrap to ErrUnauthorized.
func (c *TokenCodec) Verify(token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return c.key, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithStrictDecoding(), jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return uuid.Nil, ErrTokenSignature
		}
		return uuid.Nil, ErrTokenMalformed
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, ErrTokenMalformed
	}
	identity, err := uuid.Parse(claims.Subject)
	if err != nil || identity == uuid.Nil {
		return uuid.Nil, ErrTokenMalformed
	}
	return identity, nil
}
