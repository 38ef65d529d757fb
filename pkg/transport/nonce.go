// Package transport implements the session handshake and the framed,
// encrypted channel to the messaging server: ephemeral-key NaCl box
// sealing/opening over a TCP connection, with independent send/
// receive nonce counters. Grounded in original_source/src/lib.rs's
// `Nonce`, `connect`, `send`, and `receive_packet`, restructured in
// the teacher's style of an owning Client/Session type around a
// net.Conn (pkg/network/client.go).
package transport

import (
	"crypto/rand"
	"encoding/binary"
)

// Nonce is the 24-byte box nonce: a 16-byte random prefix fixed for
// the life of the session plus an 8-byte little-endian counter that
// advances by one per sealed/opened frame.
type Nonce struct {
	prefix  [16]byte
	counter uint64
}

// NewNonce draws a fresh random prefix and starts the counter at
// start.
func NewNonce(start uint64) (*Nonce, error) {
	n := &Nonce{counter: start}
	if _, err := rand.Read(n.prefix[:]); err != nil {
		return nil, err
	}
	return n, nil
}

// NonceFromPrefix builds a Nonce from a prefix received from the
// peer, rather than generated locally.
func NonceFromPrefix(prefix [16]byte, start uint64) *Nonce {
	return &Nonce{prefix: prefix, counter: start}
}

// Prefix returns the nonce's fixed 16-byte prefix.
func (n *Nonce) Prefix() [16]byte { return n.prefix }

// Bytes renders the current 24-byte nonce value.
func (n *Nonce) Bytes() [24]byte {
	var out [24]byte
	copy(out[:16], n.prefix[:])
	binary.LittleEndian.PutUint64(out[16:], n.counter)
	return out
}

// Advance increments the counter, to be called once per frame sealed
// or opened under this nonce.
func (n *Nonce) Advance() { n.counter++ }
