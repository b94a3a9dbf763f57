package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	authorizationHeader = "Authorization"
	tokenScheme         = "Token "
)

// Extractor turns an inbound request's Authorization header into an
// authenticated identity. It performs pure token verification; role and
// permission lookups happen downstream in the Engine.
type Extractor struct {
	codec *TokenCodec
}

// NewExtractor constructs an Extractor over the given codec.
func NewExtractor(codec *TokenCodec) *Extractor {
	return &Extractor{codec: codec}
}

// Require returns the caller's identity, or ErrUnauthorized when the header is
// absent, malformed, or the token fails verification.
func (e *Extractor) Require(r *http.Request) (uuid.UUID, error) {
	token, err := tokenFromHeader(r.Header.Get(authorizationHeader))
	if err != nil {
		return uuid.Nil, err
	}
	return e.codec.Verify(token)
}

// Optional tolerates an absent header, returning (zero, false, nil). A header
// that is present but invalid still fails with ErrUnauthorized: absence is
// fine, garbage is not.
func (e *Extractor) Optional(r *http.Request) (uuid.UUID, bool, error) {
	header := r.Header.Get(authorizationHeader)
	if strings.TrimSpace(header) == "" {
		return uuid.Nil, false, nil
	}
	token, err := tokenFromHeader(header)
	if err != nil {
		return uuid.Nil, false, err
	}
	identity, err := e.codec.Verify(token)
	if err != nil {
		return uuid.Nil, false, err
	}
	return identity, true, nil
}

func tokenFromHeader(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrUnauthorized
	}
	if !strings.HasPrefix(header, tokenScheme) {
		return "", ErrUnauthorized
	}
	token := strings.TrimSpace(header[len(tokenScheme):])
	if token == "" {
		return "", ErrUnauthorized
	}
	return token, nil
}
