// Package identity implements the user identity type and the recovery
// of a long-term secret key from a password-protected backup string,
// grounded in original_source/src/identity.rs and the ThreemaID type
// in original_source/src/lib.rs.
package identity

import (
	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ID is the 8-character user handle, restricted to A-Z0-9.
type ID [8]byte

// ParseID validates s against the identity alphabet and returns the
// corresponding ID.
func ParseID(s string) (ID, error) {
	var id ID
	if len(s) != 8 {
		return id, clienterr.New(clienterr.InvalidID, nil)
	}
	for i := 0; i < 8; i++ {
		c := s[i]
		if !isIDChar(c) {
			return id, clienterr.New(clienterr.InvalidID, nil)
		}
		id[i] = c
	}
	return id, nil
}

func isIDChar(c byte) bool {
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == c {
			return true
		}
	}
	return false
}

// String renders the identity as ASCII text.
func (id ID) String() string {
	return string(id[:])
}

// PublicKey is a peer's or our own long-term X25519 public key.
type PublicKey [32]byte

// PrivateKey is the long-term secret key recovered from a backup. It
// never leaves the process that decoded it and is never transmitted.
type PrivateKey [32]byte
