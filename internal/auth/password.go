package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argonMemory      = 64 * 1024
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// hashGate bounds the number of concurrent argon2 computations so that a burst
// of logins cannot starve the scheduler. Hashing is intentionally expensive
// (tens of milliseconds per call at the parameters above).
var hashGate = make(chan struct{}, runtime.GOMAXPROCS(0))

func acquireHashSlot(ctx context.Context) error {
	select {
	case hashGate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func releaseHashSlot() { <-hashGate }

// HashPassword derives an argon2id digest in PHC format. The digest embeds the
// algorithm parameters and a fresh random salt, so it is self-describing and
// safe for long-term storage. The plaintext is never logged or persisted.
func HashPassword(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	if err := acquireHashSlot(ctx); err != nil {
		return "", err
	}
	defer releaseHashSlot()

	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword recomputes the digest with the parameters stored in it and
// compares in constant time. It returns nil on a match, ErrIncorrectPassword on
// a mismatch, and *MalformedDigestError when the stored digest cannot be
// parsed. The last case means data corruption and must not be reported to the
// caller as a wrong password.
func VerifyPassword(ctx context.Context, password, digest string) error {
	params, salt, want, err := parseDigest(digest)
	if err != nil {
		return err
	}
	if err := acquireHashSlot(ctx); err != nil {
		return err
	}
	defer releaseHashSlot()

	got := argon2.IDKey([]byte(password), salt, params.iterations, params.memory, params.parallelism, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrIncorrectPassword
	}
	return nil
}

type argonParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func parseDigest(digest string) (argonParams, []byte, []byte, error) {
	var p argonParams
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, &MalformedDigestError{Reason: "wrong number of segments"}
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, &MalformedDigestError{Reason: fmt.Sprintf("unsupported algorithm %q", parts[1])}
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, &MalformedDigestError{Reason: "unsupported version"}
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, &MalformedDigestError{Reason: "unreadable parameters"}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, &MalformedDigestError{Reason: "undecodable salt"}
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, &MalformedDigestError{Reason: "undecodable hash"}
	}
	if len(hash) == 0 {
		return p, nil, nil, &MalformedDigestError{Reason: "empty hash"}
	}
	return p, salt, hash, nil
}
