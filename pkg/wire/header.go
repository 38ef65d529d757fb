// Package wire defines the flat-codec schemas for everything that
// crosses the network: the per-message Header, the transport-level
// Packet tagged union, and the end-to-end Message tagged union. Every
// type here hand-implements Encode/Decode against pkg/codec the way
// the teacher's pkg/protocol/header.go hand-rolls offset-tracked
// encode/decode, but little-endian and against the schemas ported
// from original_source/src/packets.rs rather than the teacher's own
// framing.
package wire

import (
	"crypto/rand"

	"github.com/ZentaChain/zentalk-client/pkg/codec"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

// MessageID identifies a single end-to-end message, generated
// randomly by the sender. Grounded in original_source/src/lib.rs's
// MessageID([u8; 8]).
type MessageID [8]byte

// NewMessageID draws a fresh random MessageID.
func NewMessageID() MessageID {
	var id MessageID
	if _, err := rand.Read(id[:]); err != nil {
		panic(err)
	}
	return id
}

func (m MessageID) String() string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i, b := range m {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0xf]
	}
	return string(out)
}

// HeaderSize is the encoded byte length of Header: 8+8+8+4+4+32+24.
const HeaderSize = 8 + 8 + 8 + 4 + 4 + 32 + 24

// Header precedes every end-to-end Message on the wire, grounded in
// original_source/src/packets.rs's Header struct.
type Header struct {
	Sender    identity.ID
	Receiver  identity.ID
	MsgID     MessageID
	Timestamp uint32
	Flags     uint32
	Nickname  [32]byte
	Nonce     [24]byte
}

// Encode appends the flat encoding of h to e.
func (h *Header) Encode(e *codec.Encoder) {
	e.Raw(h.Sender[:])
	e.Raw(h.Receiver[:])
	e.Raw(h.MsgID[:])
	e.U32(h.Timestamp)
	e.U32(h.Flags)
	e.Raw(h.Nickname[:])
	e.Raw(h.Nonce[:])
}

// DecodeHeader reads a Header from d.
func DecodeHeader(d *codec.Decoder) (*Header, error) {
	var h Header
	sender, err := d.Raw(8)
	if err != nil {
		return nil, err
	}
	copy(h.Sender[:], sender)
	receiver, err := d.Raw(8)
	if err != nil {
		return nil, err
	}
	copy(h.Receiver[:], receiver)
	msgID, err := d.Raw(8)
	if err != nil {
		return nil, err
	}
	copy(h.MsgID[:], msgID)
	if h.Timestamp, err = d.U32(); err != nil {
		return nil, err
	}
	if h.Flags, err = d.U32(); err != nil {
		return nil, err
	}
	nick, err := d.Raw(32)
	if err != nil {
		return nil, err
	}
	copy(h.Nickname[:], nick)
	nonce, err := d.Raw(24)
	if err != nil {
		return nil, err
	}
	copy(h.Nonce[:], nonce)
	return &h, nil
}
