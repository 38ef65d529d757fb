package wire

import (
	"github.com/ZentaChain/zentalk-client/pkg/codec"
	"github.com/ZentaChain/zentalk-client/pkg/identity"
)

// Message tags, a u8 discriminant ported from the end-to-end message
// tag table: original_source/src/packets.rs's `Message` enum extended
// with the BallotCreate/BallotVote/contact-photo/VoIP ranges named in
// the directory lookup and handshake spec. Group operations, contact
// photo operations, and VoIP signaling are recognized by tag and
// carried as opaque payloads -- their internal framing is out of
// scope, matching the non-goals around group-management semantics and
// voice-call signaling.
const (
	MessageText               uint8 = 0x01
	MessageImage              uint8 = 0x02
	MessageLocation           uint8 = 0x10
	MessageVideo              uint8 = 0x13
	MessageAudio              uint8 = 0x14
	MessageBallotCreate       uint8 = 0x15
	MessageBallotVote         uint8 = 0x16
	MessageFile               uint8 = 0x17
	MessageDeliveryReceipt    uint8 = 0x80
	MessageTypingNotification uint8 = 0x90
)

// contactPhotoLo/Hi and groupOpLo/Hi and voipLo/Hi bound the
// recognize-only tag ranges from the end-to-end message tag table.
const (
	contactPhotoLo = 0x18
	contactPhotoHi = 0x1a
	groupOpLo      = 0x41
	groupOpHi      = 0x54
	voipLo         = 0x60
	voipHi         = 0x64
)

// DeliveryStatus is the status byte carried by a DeliveryReceipt.
type DeliveryStatus uint8

const (
	StatusDelivered   DeliveryStatus = 1
	StatusRead        DeliveryStatus = 2
	StatusApproved    DeliveryStatus = 3
	StatusDisapproved DeliveryStatus = 4
)

// Message is the end-to-end tagged union carried as a Header's
// encrypted body. Fields are populated according to Tag; recognize-
// only ranges (group ops, contact photo ops, VoIP) populate Tag and
// Raw only.
type Message struct {
	Tag uint8

	Text string // MessageText

	Raw []byte // MessageImage/Location/Video/Audio and recognize-only ranges

	PollID  [8]byte // MessageBallotCreate / MessageBallotVote
	Details []byte  // MessageBallotCreate: JSON object to end

	VoteSender identity.ID
	Updates    []byte // MessageBallotVote: JSON array to end

	FileJSON []byte // MessageFile: JSON object to end

	ReceiptStatus DeliveryStatus // MessageDeliveryReceipt
	ReceiptMsgID  MessageID      // MessageDeliveryReceipt
}

// IsGroupOp, IsContactPhotoOp, and IsVoIP report whether tag falls
// into a recognize-only range.
func IsGroupOp(tag uint8) bool        { return tag >= groupOpLo && tag <= groupOpHi }
func IsContactPhotoOp(tag uint8) bool { return tag >= contactPhotoLo && tag <= contactPhotoHi }
func IsVoIP(tag uint8) bool           { return tag >= voipLo && tag <= voipHi }

// Encode appends the flat encoding of m to e.
func (m *Message) Encode(e *codec.Encoder) {
	e.U8(m.Tag)
	switch {
	case m.Tag == MessageText:
		e.Raw([]byte(m.Text))
	case m.Tag == MessageImage, m.Tag == MessageLocation, m.Tag == MessageVideo, m.Tag == MessageAudio:
		e.Raw(m.Raw)
	case m.Tag == MessageBallotCreate:
		e.Raw(m.PollID[:])
		e.Raw(m.Details)
	case m.Tag == MessageBallotVote:
		e.Raw(m.VoteSender[:])
		e.Raw(m.PollID[:])
		e.Raw(m.Updates)
	case m.Tag == MessageFile:
		e.Raw(m.FileJSON)
	case m.Tag == MessageDeliveryReceipt:
		e.U8(uint8(m.ReceiptStatus))
		e.Raw(m.ReceiptMsgID[:])
	case m.Tag == MessageTypingNotification:
		// no payload
	case IsGroupOp(m.Tag), IsContactPhotoOp(m.Tag), IsVoIP(m.Tag):
		e.Raw(m.Raw)
	}
}

// DecodeMessage reads a Message from d, consuming the remainder of d
// as the current variant's trailing payload where the schema calls
// for "bytes to end".
func DecodeMessage(d *codec.Decoder) (*Message, error) {
	tag, err := d.U8()
	if err != nil {
		return nil, err
	}
	m := &Message{Tag: tag}
	switch {
	case tag == MessageText:
		m.Text = string(d.RawToEnd())
	case tag == MessageImage, tag == MessageLocation, tag == MessageVideo, tag == MessageAudio:
		m.Raw = d.RawToEnd()
	case tag == MessageBallotCreate:
		pollID, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(m.PollID[:], pollID)
		m.Details = d.RawToEnd()
	case tag == MessageBallotVote:
		sender, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(m.VoteSender[:], sender)
		pollID, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(m.PollID[:], pollID)
		m.Updates = d.RawToEnd()
	case tag == MessageFile:
		m.FileJSON = d.RawToEnd()
	case tag == MessageDeliveryReceipt:
		status, err := d.U8()
		if err != nil {
			return nil, err
		}
		m.ReceiptStatus = DeliveryStatus(status)
		msgID, err := d.Raw(8)
		if err != nil {
			return nil, err
		}
		copy(m.ReceiptMsgID[:], msgID)
	case tag == MessageTypingNotification:
		// no payload
	case IsGroupOp(tag), IsContactPhotoOp(tag), IsVoIP(tag):
		m.Raw = d.RawToEnd()
	default:
		return nil, codec.ErrUnknownTag
	}
	return m, nil
}
