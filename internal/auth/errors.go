package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates the caller presented no usable proof of identity.
	ErrUnauthorized = errors.New("auth: unauthorized")

	// ErrIncorrectPassword indicates a credential mismatch. This is an expected
	// outcome of verification, not a system failure.
	ErrIncorrectPassword = errors.New("auth: incorrect password")

	// ErrInvitationAlreadySent indicates a pending invitation already exists for
	// the same enterprise and email.
	ErrInvitationAlreadySent = errors.New("auth: an invitation for that email is already pending")
)

// ErrTokenSignature and ErrTokenMalformed distinguish why a session token was
// rejected. Both unwrap to ErrUnauthorized; the split exists for observability
// and must never change the caller-visible response.
var (
	ErrTokenSignature = fmt.Errorf("%w: token signature invalid", ErrUnauthorized)
	ErrTokenMalformed = fmt.Errorf("%w: token payload malformed", ErrUnauthorized)
)

// ForbiddenError is returned by the permission engine when a valid caller lacks
// the privilege for an action. The action is carried so the HTTP layer can
// render "you may not <action>".
type ForbiddenError struct {
	Action Action
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: you may not %s", e.Action)
}

// NotFoundError indicates a referenced resource does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// MalformedDigestError indicates a stored password digest could not be parsed.
// This signals data corruption and must surface as an internal error, never as
// a credential mismatch.
type MalformedDigestError struct {
	Reason string
}

func (e *MalformedDigestError) Error() string {
	return fmt.Sprintf("malformed password digest: %s", e.Reason)
}

// UsernameTakenError indicates the username uniqueness constraint was violated.
type UsernameTakenError struct {
	Username string
}

func (e *UsernameTakenError) Error() string {
	return fmt.Sprintf("username %q is already taken", e.Username)
}

// InvalidUsernameError indicates the username failed the database format check.
type InvalidUsernameError struct {
	Username string
}

func (e *InvalidUsernameError) Error() string {
	return fmt.Sprintf("username %q is not valid", e.Username)
}

// InvalidEmailError indicates an email address failed the database format check.
type InvalidEmailError struct {
	Email string
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf("email address %q is not valid", e.Email)
}

// InvalidPhoneError indicates a phone number failed the database format check.
type InvalidPhoneError struct {
	Phone string
}

func (e *InvalidPhoneError) Error() string {
	return fmt.Sprintf("phone number %q is not valid", e.Phone)
}
