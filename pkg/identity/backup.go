package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/salsa20"

	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
)

// backupAlphabet is the bit-packer's 5-bit alphabet, distinct from the
// identity.ID alphabet: standard base32 (A-Z2-7), grounded in
// original_source/src/identity.rs's base32().
const backupAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// unpackBase32 reverses the MSB-first 5-bits-per-char packing used by
// backup strings. It is not encoding/base32: that package pads to a
// multiple of 5 bits and rejects malformed padding, while backup
// strings simply drop whatever trailing bits don't complete a byte.
func unpackBase32(s string) ([]byte, bool) {
	out := make([]byte, 0, len(s)*5/8+1)
	var skip uint8
	var byt uint8
	for _, r := range s {
		switch r {
		case '0':
			r = 'O'
		case '1':
			r = 'I'
		default:
			if r >= 'a' && r <= 'z' {
				r -= 'a' - 'A'
			}
		}
		idx := strings.IndexRune(backupAlphabet, r)
		if idx < 0 {
			return nil, false
		}
		val := uint8(idx) << 3
		byt |= val >> skip
		skip += 5
		if skip >= 8 {
			out = append(out, byt)
			skip -= 8
			if skip > 0 {
				byt = val << (5 - skip)
			} else {
				byt = 0
			}
		}
	}
	return out, true
}

// DecodeBackup recovers an identity and its long-term private key from
// a password-protected backup string, grounded byte-for-byte in
// original_source/src/identity.rs's decrypt(). Any failure along the
// way -- malformed input, wrong password, or a corrupted backup -- is
// reported identically as InvalidBackupOrPassword so an attacker
// cannot distinguish which step failed.
func DecodeBackup(backup, password string) (ID, PrivateKey, error) {
	var id ID
	var priv PrivateKey

	cleaned := strings.ReplaceAll(backup, "-", "")
	packed, ok := unpackBase32(cleaned)
	if !ok || len(packed) < 8 {
		return id, priv, clienterr.New(clienterr.InvalidBackupOrPassword, nil)
	}
	salt, ciphertext := packed[:8], packed[8:]
	if len(ciphertext) < 42 {
		return id, priv, clienterr.New(clienterr.InvalidBackupOrPassword, nil)
	}

	key := pbkdf2.Key([]byte(password), salt, 100_000, 32, sha256.New)

	var nonce [24]byte
	var streamKey [32]byte
	copy(streamKey[:], key)
	plain := make([]byte, len(ciphertext))
	salsa20.XORKeyStream(plain, ciphertext, nonce[:], &streamKey)

	idBytes, rest := plain[:8], plain[8:]
	privBytes, expectedHash := rest[:32], rest[32:34]

	md := sha256.New()
	md.Write(idBytes)
	md.Write(privBytes)
	hash := md.Sum(nil)

	if subtle.ConstantTimeCompare(expectedHash, hash[:2]) != 1 {
		return id, priv, clienterr.New(clienterr.InvalidBackupOrPassword, nil)
	}

	parsed, err := ParseID(string(idBytes))
	if err != nil {
		return id, priv, clienterr.New(clienterr.InvalidBackupOrPassword, nil)
	}
	copy(priv[:], privBytes)
	return parsed, priv, nil
}
