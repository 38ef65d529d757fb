// Package messaging implements the end-to-end message layer: building
// and sealing outbound envelopes, opening and parsing inbound ones,
// padding, and the delivery-ack/receipt protocol. Grounded in
// original_source/src/lib.rs's send_message/send_text_message/
// confirm_receipt/send_ack/receive/receive_packet, with the
// dispatch-by-tag and callback-field shape of the teacher's
// pkg/network/client.go and pkg/network/typing_receipt.go.
package messaging

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/nacl/box"

	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
	"github.com/ZentaChain/zentalk-client/pkg/codec"
	"github.com/ZentaChain/zentalk-client/pkg/directory"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
	"github.com/ZentaChain/zentalk-client/pkg/transport"
	"github.com/ZentaChain/zentalk-client/pkg/wire"
)

// Client is the single-owner, single-threaded messaging session: one
// transport.Session, one directory.Cache, and the long-term secret
// needed to seal/open end-to-end envelopes.
type Client struct {
	id       identity.ID
	priv     identity.PrivateKey
	nickname string

	session *transport.Session
	peers   *directory.Cache

	// OnMessage fires for every user-visible inbound end-to-end
	// message, after the delivery-ack and (where applicable) receipt
	// protocol have already run.
	OnMessage func(msgID wire.MessageID, sender identity.ID, msg *wire.Message)
	// OnAck fires when the server acknowledges one of our outbound
	// messages (packet tag ServerAck).
	OnAck func(msgID wire.MessageID)
	// OnAlert fires on a benign server-initiated packet that carries
	// no payload (ConnectionEstablished, Alert).
	OnAlert func(tag uint32)
}

// ErrDuplicateConnection is returned by Receive when the server
// reports this identity is already connected elsewhere.
var ErrDuplicateConnection = clienterr.New(clienterr.NotConnected, nil)

// NewClient wraps an already-handshaken Session and a peer-key cache
// for id/priv. nickname is truncated to 32 bytes and sent with every
// outbound header; an empty nickname falls back to the identity
// itself, matching original_source's get_nickname.
func NewClient(id identity.ID, priv identity.PrivateKey, nickname string, session *transport.Session, peers *directory.Cache) *Client {
	return &Client{id: id, priv: priv, nickname: nickname, session: session, peers: peers}
}

func (c *Client) nicknameBytes() [32]byte {
	var out [32]byte
	src := []byte(c.nickname)
	if len(src) == 0 {
		src = c.id[:]
	}
	n := len(src)
	if n > 32 {
		n = 32
	}
	copy(out[:n], src[:n])
	return out
}

// randomPad draws a uniform value in [1, 32], matching spec's padding
// rule (original_source draws 0..=31 via randombytes_uniform(32); the
// 1..=32 range here is the corrected, self-consistent version).
func randomPad() (uint8, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(32))
	if err != nil {
		return 0, err
	}
	return uint8(n.Int64()) + 1, nil
}

func pad(body []byte) ([]byte, error) {
	p, err := randomPad()
	if err != nil {
		return nil, err
	}
	padded := make([]byte, len(body)+int(p))
	copy(padded, body)
	for i := len(body); i < len(padded); i++ {
		padded[i] = p
	}
	return padded, nil
}

func unpad(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, clienterr.New(clienterr.ParseError, nil)
	}
	p := int(plain[len(plain)-1])
	if p < 1 || p > 32 || p > len(plain) {
		return nil, clienterr.New(clienterr.ParseError, nil)
	}
	return plain[:len(plain)-p], nil
}

func (c *Client) buildHeader(receiver identity.ID, msgID wire.MessageID) (*wire.Header, [24]byte, error) {
	h := &wire.Header{
		Sender:    c.id,
		Receiver:  receiver,
		MsgID:     msgID,
		Timestamp: uint32(time.Now().Unix()),
		Flags:     1,
		Nickname:  c.nicknameBytes(),
	}
	if _, err := rand.Read(h.Nonce[:]); err != nil {
		return nil, [24]byte{}, clienterr.New(clienterr.IO, err)
	}
	return h, h.Nonce, nil
}

func (c *Client) sendEnvelope(ctx context.Context, receiver identity.ID, body []byte) (wire.MessageID, error) {
	peerPub, err := c.peers.Get(ctx, receiver)
	if err != nil {
		return wire.MessageID{}, err
	}

	padded, err := pad(body)
	if err != nil {
		return wire.MessageID{}, clienterr.New(clienterr.IO, err)
	}

	msgID := wire.NewMessageID()
	header, nonce, err := c.buildHeader(receiver, msgID)
	if err != nil {
		return wire.MessageID{}, err
	}

	longTermSecret := [32]byte(c.priv)
	peerPubArr := [32]byte(peerPub)
	ciphertext := box.Seal(nil, padded, &nonce, &peerPubArr, &longTermSecret)

	e := codec.NewEncoder(4 + wire.HeaderSize + len(ciphertext))
	e.U32(wire.PacketClientToServer)
	header.Encode(e)
	e.Raw(ciphertext)

	if err := c.session.SendFrame(e.Bytes()); err != nil {
		return wire.MessageID{}, err
	}
	return msgID, nil
}

// SendText sends a Text end-to-end message to receiver and returns
// its freshly generated MessageID.
func (c *Client) SendText(ctx context.Context, receiver identity.ID, text string) (wire.MessageID, error) {
	e := codec.NewEncoder(1 + len(text))
	e.U8(wire.MessageText)
	e.Raw([]byte(text))
	return c.sendEnvelope(ctx, receiver, e.Bytes())
}

// sendReceipt emits a DeliveryReceipt for msgID back to receiver.
func (c *Client) sendReceipt(ctx context.Context, receiver identity.ID, status wire.DeliveryStatus, msgID wire.MessageID) error {
	e := codec.NewEncoder(10)
	e.U8(wire.MessageDeliveryReceipt)
	e.U8(uint8(status))
	e.Raw(msgID[:])
	_, err := c.sendEnvelope(ctx, receiver, e.Bytes())
	return err
}

// sendAck emits a transport-level ClientAck for (receiver, msgID).
// Unlike sendReceipt, this is not end-to-end encrypted; it goes
// directly over the transport session.
func (c *Client) sendAck(receiver identity.ID, msgID wire.MessageID) error {
	e := codec.NewEncoder(4 + 8 + 8)
	e.U32(wire.PacketClientAck)
	e.Raw(receiver[:])
	e.Raw(msgID[:])
	return c.session.SendFrame(e.Bytes())
}

// Receive blocks on the transport until a user-visible inbound
// end-to-end message is produced, handling acks, alerts, and the
// delivery-receipt protocol transparently in between. A failure to
// open or parse an inbound envelope (DecryptionFailed, ParseError) is
// returned to the caller rather than retried internally; the caller
// may call Receive again to keep listening. It returns
// ErrDuplicateConnection if the server reports this identity is
// already connected elsewhere, after closing the underlying session.
func (c *Client) Receive(ctx context.Context) (wire.MessageID, identity.ID, *wire.Message, error) {
	for {
		frame, err := c.session.ReceiveFrame()
		if err != nil {
			return wire.MessageID{}, identity.ID{}, nil, err
		}

		d := codec.NewDecoder(frame)
		p, err := wire.DecodePacket(d)
		if err != nil {
			log.Printf("messaging: skipping unknown packet: %v", err)
			continue
		}

		switch p.Tag {
		case wire.PacketServerToClient:
			msgID, sender, msg, err := c.handleInbound(ctx, p.Header, d.Remainder())
			if err != nil {
				return wire.MessageID{}, identity.ID{}, nil, err
			}
			return msgID, sender, msg, nil
		case wire.PacketServerAck:
			if c.OnAck != nil {
				c.OnAck(p.AckMsg)
			}
		case wire.PacketConnectionEstablished, wire.PacketAlert:
			if c.OnAlert != nil {
				c.OnAlert(p.Tag)
			}
		case wire.PacketDuplicateConnection:
			c.session.Close()
			return wire.MessageID{}, identity.ID{}, nil, ErrDuplicateConnection
		default:
			log.Printf("messaging: unhandled packet tag %#x", p.Tag)
		}
	}
}

func (c *Client) handleInbound(ctx context.Context, header *wire.Header, ciphertext []byte) (wire.MessageID, identity.ID, *wire.Message, error) {
	if err := c.sendAck(header.Sender, header.MsgID); err != nil {
		return wire.MessageID{}, identity.ID{}, nil, err
	}

	peerPub, err := c.peers.Get(ctx, header.Sender)
	if err != nil {
		return wire.MessageID{}, identity.ID{}, nil, err
	}

	longTermSecret := [32]byte(c.priv)
	peerPubArr := [32]byte(peerPub)
	nonce := header.Nonce
	plain, ok := box.Open(nil, ciphertext, &nonce, &peerPubArr, &longTermSecret)
	if !ok {
		return wire.MessageID{}, identity.ID{}, nil, clienterr.New(clienterr.DecryptionFailed, nil)
	}

	unpadded, err := unpad(plain)
	if err != nil {
		return wire.MessageID{}, identity.ID{}, nil, err
	}

	msg, err := wire.DecodeMessage(codec.NewDecoder(unpadded))
	if err != nil {
		return wire.MessageID{}, identity.ID{}, nil, clienterr.New(clienterr.ParseError, err)
	}

	if msg.Tag != wire.MessageTypingNotification && msg.Tag != wire.MessageDeliveryReceipt {
		if err := c.sendReceipt(ctx, header.Sender, wire.StatusDelivered, header.MsgID); err != nil {
			log.Printf("messaging: failed to send delivery receipt: %v", err)
		}
	}

	if c.OnMessage != nil {
		c.OnMessage(header.MsgID, header.Sender, msg)
	}
	return header.MsgID, header.Sender, msg, nil
}
