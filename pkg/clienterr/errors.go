// Package clienterr defines the error kinds shared across the
// identity, transport, directory, and messaging packages, mirroring
// the Rust source's single `enum Error` (original_source/src/lib.rs)
// while staying idiomatic Go: a small Kind enum plus a wrapping Error
// that supports errors.Is/errors.As, generalizing the teacher's
// package-level sentinel-error style (pkg/crypto/keys.go,
// pkg/network/client.go) to one shared, classifiable error type.
package clienterr

import (
	"errors"
	"fmt"
)

// Kind classifies a client error the way the original Error enum's
// variants do.
type Kind int

const (
	_ Kind = iota
	InvalidPrivateKey
	InvalidPublicKey
	InvalidBackupOrPassword
	InvalidID
	IO
	ParseError
	RequestError
	NotConnected
	DecryptionFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidPrivateKey:
		return "invalid private key"
	case InvalidPublicKey:
		return "invalid public key"
	case InvalidBackupOrPassword:
		return "invalid backup or password"
	case InvalidID:
		return "invalid ID format"
	case IO:
		return "I/O error"
	case ParseError:
		return "parser error"
	case RequestError:
		return "request failed"
	case NotConnected:
		return "not connected"
	case DecryptionFailed:
		return "decryption failed"
	default:
		return "unknown error"
	}
}

// Error wraps a Kind with optional underlying detail.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind wrapping err (which may
// be nil).
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Of reports the Kind of err if it is (or wraps) a *Error, and false
// otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
