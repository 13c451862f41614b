// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package account

import "errors"

// Kind classifies an AuthError.
type Kind string

const (
	KindGeneric             Kind = "generic"
	KindInvalidInput        Kind = "invalid-input"
	KindWrongCredential     Kind = "wrong-credential"
	KindEmailNotVerified    Kind = "email-not-verified"
	KindRequiresRecentLogin Kind = "requires-recent-login"
	KindEmailInUse          Kind = "email-in-use"
	KindInvalidToken        Kind = "invalid-token"
)

// AuthError is returned by every Service operation that fails. Message is
// suitable for display.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// IsKind reports whether err is an *AuthError of kind k.
func IsKind(err error, k Kind) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Kind == k
}

func invalidInput(msg string) error {
	return &AuthError{Kind: KindInvalidInput, Message: msg}
}

func wrongCredential(msg string) error {
	return &AuthError{Kind: KindWrongCredential, Message: msg}
}

func generic(msg string, err error) error {
	return &AuthError{Kind: KindGeneric, Message: msg, Err: err}
}

var (
	// ErrUserNotFound is returned by a Repository for an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by a Repository when the email is in use.
	ErrEmailTaken = errors.New("email already in use")
	// ErrTokenNotFound is returned by a Repository for an unknown or
	// already used token.
	ErrTokenNotFound = errors.New("token not found")
)
