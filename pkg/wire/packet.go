package wire

import (
	"github.com/ZentaChain/zentalk-client/pkg/codec"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

// Packet tags, a u32 discriminant ported from
// original_source/src/packets.rs's `Packet` enum (flat_enum!, repr =
// u32). EchoRequest is the explicit 0x80; ServerAck/ClientAck take the
// default-successor values 0x81 and 0x82 that follow it.
const (
	PacketClientToServer        uint32 = 1
	PacketServerToClient        uint32 = 2
	PacketEchoRequest           uint32 = 0x80
	PacketServerAck             uint32 = 0x81
	PacketClientAck             uint32 = 0x82
	PacketConnectionEstablished uint32 = 0xd0
	PacketDuplicateConnection   uint32 = 0xe0
	PacketAlert                 uint32 = 0xe1
)

// Packet is the transport-level tagged union carried inside every
// encrypted frame.
type Packet struct {
	Tag uint32

	// ClientToServer / ServerToClient
	Header *Header

	// EchoRequest
	EchoValue uint64

	// ServerAck / ClientAck
	AckFrom identity.ID
	AckMsg  MessageID
}

// Encode appends the flat encoding of p to e.
func (p *Packet) Encode(e *codec.Encoder) {
	e.U32(p.Tag)
	switch p.Tag {
	case PacketClientToServer, PacketServerToClient:
		p.Header.Encode(e)
	case PacketEchoRequest:
		e.U64(p.EchoValue)
	case PacketServerAck, PacketClientAck:
		e.Raw(p.AckFrom[:])
		e.Raw(p.AckMsg[:])
	case PacketConnectionEstablished, PacketDuplicateConnection, PacketAlert:
		// no payload
	}
}

// DecodePacket reads a Packet from d.
func DecodePacket(d *codec.Decoder) (*Packet, error) {
	tag, err := d.U32()
	if err != nil {
		return nil, err
	}
	p := &Packet{Tag: tag}
	switch tag {
	case PacketClientToServer, PacketServerToClient:
		h, err := DecodeHeader(d)
		if err != nil {
			return nil, err
		}
		p.Header = h
	case PacketEchoRequest:
		v, err := d.U64()
		if err != nil {
			return nil, err
		}
		p.EchoValue = v
	case PacketServerAck, PacketClientAck:
		from, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(p.AckFrom[:], from)
		msg, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(p.AckMsg[:], msg)
	case PacketConnectionEstablished, PacketDuplicateConnection, PacketAlert:
		// no payload
	default:
		return nil, codec.ErrUnknownTag
	}
	return p, nil
}
