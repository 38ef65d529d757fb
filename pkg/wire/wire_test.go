package wire

import (
	"bytes"
	"testing"

	"github.com/ZentaChain/zentalk-client/pkg/codec"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

func TestHeaderSizeIs88(t *testing.T) {
	if HeaderSize != 88 {
		t.Fatalf("HeaderSize = %d, want 88", HeaderSize)
	}
	h := &Header{}
	e := codec.NewEncoder(HeaderSize)
	h.Encode(e)
	if len(e.Bytes()) != 88 {
		t.Fatalf("encoded header length = %d, want 88", len(e.Bytes()))
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		Timestamp: 1234,
		Flags:     1,
	}
	copy(h.Sender[:], "ECHOECHO")
	copy(h.Receiver[:], "ABCD1234")
	h.MsgID = NewMessageID()
	copy(h.Nickname[:], "alice")
	copy(h.Nonce[:], bytes.Repeat([]byte{0x42}, 24))

	e := codec.NewEncoder(HeaderSize)
	h.Encode(e)

	d := codec.NewDecoder(e.Bytes())
	got, err := DecodeHeader(d)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.Sender != h.Sender || got.Receiver != h.Receiver {
		t.Errorf("sender/receiver mismatch: %+v", got)
	}
	if got.MsgID != h.MsgID {
		t.Errorf("msg id mismatch")
	}
	if got.Timestamp != h.Timestamp || got.Flags != h.Flags {
		t.Errorf("timestamp/flags mismatch: %+v", got)
	}
	if got.Nonce != h.Nonce {
		t.Errorf("nonce mismatch")
	}
	if d.Consumed() != HeaderSize {
		t.Errorf("consumed %d bytes, want %d", d.Consumed(), HeaderSize)
	}
}

func TestPacketClientToServerTagScenario(t *testing.T) {
	// Scenario 4: a ClientToServer envelope's packet tag encodes as
	// 01 00 00 00 little-endian regardless of payload.
	h := &Header{}
	copy(h.Sender[:], "ALICE111")
	copy(h.Receiver[:], "ECHOECHO")
	p := &Packet{Tag: PacketClientToServer, Header: h}

	e := codec.NewEncoder(4 + HeaderSize)
	p.Encode(e)
	got := e.Bytes()
	if !bytes.Equal(got[:4], []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Errorf("packet tag = %x, want 01 00 00 00", got[:4])
	}
	if len(got) != 4+HeaderSize {
		t.Errorf("packet length = %d, want %d", len(got), 4+HeaderSize)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	cases := []*Packet{
		{Tag: PacketEchoRequest, EchoValue: 0xdeadbeef},
		{Tag: PacketServerAck, AckFrom: identFromString("ECHOECHO"), AckMsg: NewMessageID()},
		{Tag: PacketClientAck, AckFrom: identFromString("ECHOECHO"), AckMsg: NewMessageID()},
		{Tag: PacketConnectionEstablished},
		{Tag: PacketDuplicateConnection},
		{Tag: PacketAlert},
	}
	for _, p := range cases {
		e := codec.NewEncoder(16)
		p.Encode(e)
		d := codec.NewDecoder(e.Bytes())
		got, err := DecodePacket(d)
		if err != nil {
			t.Fatalf("DecodePacket(tag=%#x): %v", p.Tag, err)
		}
		if got.Tag != p.Tag || got.EchoValue != p.EchoValue || got.AckFrom != p.AckFrom || got.AckMsg != p.AckMsg {
			t.Errorf("round-trip mismatch for tag %#x: got %+v, want %+v", p.Tag, got, p)
		}
		if d.Consumed() != len(e.Bytes()) {
			t.Errorf("tag %#x: consumed %d, want %d", p.Tag, d.Consumed(), len(e.Bytes()))
		}
	}
}

func TestDecodePacketUnknownTag(t *testing.T) {
	e := codec.NewEncoder(4)
	e.U32(0x12345678)
	if _, err := DecodePacket(codec.NewDecoder(e.Bytes())); err != codec.ErrUnknownTag {
		t.Errorf("expected ErrUnknownTag, got %v", err)
	}
}

func TestMessageTextRoundTrip(t *testing.T) {
	m := &Message{Tag: MessageText, Text: "hi"}
	e := codec.NewEncoder(8)
	m.Encode(e)
	want := []byte{0x01, 'h', 'i'}
	if !bytes.Equal(e.Bytes(), want) {
		t.Errorf("Text(hi) = %x, want %x", e.Bytes(), want)
	}
	d := codec.NewDecoder(e.Bytes())
	got, err := DecodeMessage(d)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got.Text != "hi" {
		t.Errorf("Text = %q, want hi", got.Text)
	}
}

func TestMessageDeliveryReceiptRoundTrip(t *testing.T) {
	m := &Message{Tag: MessageDeliveryReceipt, ReceiptStatus: StatusDelivered, ReceiptMsgID: NewMessageID()}
	e := codec.NewEncoder(10)
	m.Encode(e)
	d := codec.NewDecoder(e.Bytes())
	got, err := DecodeMessage(d)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if got.ReceiptStatus != StatusDelivered || got.ReceiptMsgID != m.ReceiptMsgID {
		t.Errorf("receipt mismatch: %+v", got)
	}
}

func TestMessageTypingNotificationHasNoPayload(t *testing.T) {
	m := &Message{Tag: MessageTypingNotification}
	e := codec.NewEncoder(1)
	m.Encode(e)
	if !bytes.Equal(e.Bytes(), []byte{0x90}) {
		t.Errorf("TypingNotification = %x, want [90]", e.Bytes())
	}
}

func TestMessageRecognizeOnlyRanges(t *testing.T) {
	for tag := uint8(groupOpLo); tag <= groupOpHi; tag++ {
		if !IsGroupOp(tag) {
			t.Errorf("tag %#x should be a group op", tag)
		}
	}
	for tag := uint8(voipLo); tag <= voipHi; tag++ {
		if !IsVoIP(tag) {
			t.Errorf("tag %#x should be VoIP", tag)
		}
	}
	for tag := uint8(contactPhotoLo); tag <= contactPhotoHi; tag++ {
		if !IsContactPhotoOp(tag) {
			t.Errorf("tag %#x should be a contact photo op", tag)
		}
	}

	m := &Message{Tag: groupOpLo, Raw: []byte{1, 2, 3}}
	e := codec.NewEncoder(8)
	m.Encode(e)
	d := codec.NewDecoder(e.Bytes())
	got, err := DecodeMessage(d)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if !bytes.Equal(got.Raw, []byte{1, 2, 3}) {
		t.Errorf("group op payload = %v, want [1 2 3]", got.Raw)
	}
}

func TestDecodeMessageUnknownTag(t *testing.T) {
	if _, err := DecodeMessage(codec.NewDecoder([]byte{0x99})); err != codec.ErrUnknownTag {
		t.Errorf("expected ErrUnknownTag, got %v", err)
	}
}

func identFromString(s string) identity.ID {
	var id identity.ID
	copy(id[:], s)
	return id
}
