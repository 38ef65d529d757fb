package transport

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"golang.org/x/crypto/nacl/box"

	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

// State is the lifecycle of a Session.
type State int

const (
	Disconnected State = iota
	Handshaking
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Handshaking:
		return "handshaking"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a Session's connection to the messaging server.
// The server address and its long-term public key are deliberately
// not compiled in, unlike original_source/src/lib.rs's MSG_SERVER and
// SERVER_LONG_TERM_PUBKEY constants -- callers supply them so tests
// can point a Session at a fake server.
type Options struct {
	ServerAddr      string
	ServerPublicKey [32]byte
	DialTimeout     time.Duration
	Nickname        string
}

func (o Options) dialTimeout() time.Duration {
	if o.DialTimeout <= 0 {
		return 30 * time.Second
	}
	return o.DialTimeout
}

var (
	// ErrEchoMismatch means the server's handshake reply echoed a
	// different client nonce prefix than the one sent.
	ErrEchoMismatch = errors.New("transport: server echoed wrong nonce prefix")
	// ErrAckMismatch means the final handshake acknowledgement was not
	// 16 zero bytes.
	ErrAckMismatch = errors.New("transport: handshake ack was not all-zero")
)

// Session owns the TCP connection to the messaging server and the
// per-direction nonce counters established during the handshake.
// Grounded in original_source/src/lib.rs's Threema struct fields
// (conn, client_nonce, server_nonce, server_pubkey,
// ephemeral_private_key) and in the owning-Client shape of the
// teacher's pkg/network/client.go, restructured as a single-owner,
// single-threaded type with no background goroutines.
type Session struct {
	opts  Options
	state State

	conn net.Conn

	clientNonce *Nonce
	serverNonce *Nonce

	ephPub  *[32]byte
	ephPriv *[32]byte

	serverEphPub *[32]byte

	id   identity.ID
	priv identity.PrivateKey
}

// State reports the Session's current lifecycle state.
func (s *Session) State() State { return s.state }

// Connect dials opts.ServerAddr and performs the four-message
// handshake, binding the session's ephemeral keys to id/priv.
func Connect(id identity.ID, priv identity.PrivateKey, opts Options) (*Session, error) {
	s := &Session{opts: opts, id: id, priv: priv, state: Handshaking}

	conn, err := net.DialTimeout("tcp", opts.ServerAddr, opts.dialTimeout())
	if err != nil {
		s.state = Failed
		return nil, clienterr.New(clienterr.IO, err)
	}
	s.conn = conn

	if err := s.handshake(); err != nil {
		s.state = Failed
		conn.Close()
		return nil, err
	}

	s.state = Connected
	log.Printf("transport: session established with %s as %s", opts.ServerAddr, id)
	return s, nil
}

func (s *Session) handshake() error {
	ephPub, ephPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return clienterr.New(clienterr.IO, err)
	}
	s.ephPub, s.ephPriv = ephPub, ephPriv

	clientNonce, err := NewNonce(1)
	if err != nil {
		return clienterr.New(clienterr.IO, err)
	}
	s.clientNonce = clientNonce

	// Step 2: E_pub[32] || client_nonce_prefix[16], sent in the clear.
	hello := make([]byte, 0, 48)
	hello = append(hello, ephPub[:]...)
	clientPrefix := clientNonce.Prefix()
	hello = append(hello, clientPrefix[:]...)
	if err := s.writeAll(hello); err != nil {
		return err
	}

	// Step 3: read server_nonce_prefix[16] || sealed_1[64].
	var serverPrefix [16]byte
	if err := s.readFull(serverPrefix[:]); err != nil {
		return err
	}
	sealed1 := make([]byte, 64)
	if err := s.readFull(sealed1); err != nil {
		return err
	}
	serverNonce := NonceFromPrefix(serverPrefix, 1)
	s.serverNonce = serverNonce

	plain1, ok := box.Open(nil, sealed1, nonceArr(serverNonce), &s.opts.ServerPublicKey, ephPriv)
	if !ok {
		return clienterr.New(clienterr.DecryptionFailed, nil)
	}
	if len(plain1) != 48 {
		return clienterr.New(clienterr.ParseError, fmt.Errorf("handshake step 3: got %d plaintext bytes, want 48", len(plain1)))
	}
	var serverEphPub [32]byte
	copy(serverEphPub[:], plain1[:32])
	s.serverEphPub = &serverEphPub
	echoedPrefix := plain1[32:48]
	if string(echoedPrefix) != string(clientPrefix[:]) {
		return ErrEchoMismatch
	}
	serverNonce.Advance() // server counter -> 2

	// Step 4: build the inner vouch and outer login, seal, and send.
	payloadNonce, err := NewNonce(1)
	if err != nil {
		return clienterr.New(clienterr.IO, err)
	}
	longTermSecret := priv32(s.priv)
	inner := box.Seal(nil, ephPub[:], nonceArr(payloadNonce), &s.opts.ServerPublicKey, &longTermSecret)
	if len(inner) != 48 {
		return clienterr.New(clienterr.ParseError, fmt.Errorf("inner vouch: got %d bytes, want 48", len(inner)))
	}

	outerPlain := make([]byte, 0, 128)
	outerPlain = append(outerPlain, s.id[:]...)
	outerPlain = append(outerPlain, make([]byte, 32)...)
	outerPlain = append(outerPlain, serverPrefix[:]...)
	payloadNonceBytes := payloadNonce.Bytes()
	outerPlain = append(outerPlain, payloadNonceBytes[:]...)
	outerPlain = append(outerPlain, inner...)
	if len(outerPlain) != 128 {
		return clienterr.New(clienterr.ParseError, fmt.Errorf("outer login plaintext: got %d bytes, want 128", len(outerPlain)))
	}

	outer := box.Seal(nil, outerPlain, nonceArr(clientNonce), &serverEphPub, ephPriv)
	if len(outer) != 144 {
		return clienterr.New(clienterr.ParseError, fmt.Errorf("outer login: got %d bytes, want 144", len(outer)))
	}
	if err := s.writeAll(outer); err != nil {
		return err
	}
	clientNonce.Advance() // client counter -> 2

	// Step 5: read sealed_ack[32], must open to 16 zero bytes.
	sealedAck := make([]byte, 32)
	if err := s.readFull(sealedAck); err != nil {
		return err
	}
	ack, ok := box.Open(nil, sealedAck, nonceArr(serverNonce), &serverEphPub, ephPriv)
	if !ok {
		return clienterr.New(clienterr.DecryptionFailed, nil)
	}
	serverNonce.Advance() // server counter -> 3
	if len(ack) != 16 || !allZero(ack) {
		return ErrAckMismatch
	}

	return nil
}

// SendFrame seals payload under the client nonce and writes it as
// u16_le(len) || sealed, advancing the client nonce.
func (s *Session) SendFrame(payload []byte) error {
	if s.state != Connected {
		return clienterr.New(clienterr.NotConnected, nil)
	}
	sealed := box.Seal(nil, payload, nonceArr(s.clientNonce), s.serverEphPub, s.ephPriv)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(sealed)))
	if err := s.writeAll(lenBuf[:]); err != nil {
		s.state = Failed
		return err
	}
	if err := s.writeAll(sealed); err != nil {
		s.state = Failed
		return err
	}
	s.clientNonce.Advance()
	return nil
}

// ReceiveFrame reads one length-prefixed sealed frame and opens it
// under the server nonce, advancing the server nonce. A decryption
// failure here is fatal: it transitions the session to Failed since
// it implies nonce desync or server compromise.
func (s *Session) ReceiveFrame() ([]byte, error) {
	if s.state != Connected {
		return nil, clienterr.New(clienterr.NotConnected, nil)
	}
	var lenBuf [2]byte
	if err := s.readFull(lenBuf[:]); err != nil {
		s.state = Failed
		return nil, err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	sealed := make([]byte, n)
	if err := s.readFull(sealed); err != nil {
		s.state = Failed
		return nil, err
	}
	plain, ok := box.Open(nil, sealed, nonceArr(s.serverNonce), s.serverEphPub, s.ephPriv)
	if !ok {
		s.state = Failed
		return nil, clienterr.New(clienterr.DecryptionFailed, nil)
	}
	s.serverNonce.Advance()
	return plain, nil
}

// Close tears down the TCP connection. The Session is unusable
// afterward.
func (s *Session) Close() error {
	s.state = Disconnected
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Session) writeAll(b []byte) error {
	if _, err := s.conn.Write(b); err != nil {
		return clienterr.New(clienterr.IO, err)
	}
	return nil
}

func (s *Session) readFull(b []byte) error {
	if _, err := io.ReadFull(s.conn, b); err != nil {
		return clienterr.New(clienterr.IO, err)
	}
	return nil
}

func nonceArr(n *Nonce) *[24]byte {
	b := n.Bytes()
	return &b
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func priv32(p identity.PrivateKey) [32]byte {
	return [32]byte(p)
}
