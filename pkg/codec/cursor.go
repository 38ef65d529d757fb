// Package codec implements the flat, deterministic little-endian
// serialization used to frame every transport packet and end-to-end
// message body: integers and bools at fixed width, fixed arrays as
// concatenation, records as concatenation of fields in order, and
// tagged unions as a fixed-width tag followed by the selected
// variant's payload. There are no length prefixes and no
// self-description; layout is fixed by the schema, not the data.
//
// Each schema type in pkg/wire hand-implements Encode/Decode against
// the Encoder/Decoder cursors here, the way the teacher's
// pkg/protocol types hand-roll offset-tracked encode/decode -- this
// package only factors the repeated "offset += n" bookkeeping into a
// reusable cursor.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a Decoder runs out of bytes mid-field.
var ErrTruncated = errors.New("codec: truncated input")

// ErrUnknownTag is returned when a tagged union's discriminant does
// not match any known variant.
var ErrUnknownTag = errors.New("codec: unknown tag")

// Encoder accumulates the flat encoding of a value.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder, optionally pre-sizing its
// backing buffer.
func NewEncoder(sizeHint int) *Encoder {
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf }

// Raw appends b verbatim -- used for fixed byte arrays and for
// already-encoded sub-records.
func (e *Encoder) Raw(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) U8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) U16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *Encoder) U32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) U64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *Encoder) I8(v int8)    { e.U8(uint8(v)) }
func (e *Encoder) I16(v int16)  { e.U16(uint16(v)) }
func (e *Encoder) I32(v int32)  { e.U32(uint32(v)) }
func (e *Encoder) I64(v int64)  { e.U64(uint64(v)) }

// Bool encodes v as a single byte: 0 or 1.
func (e *Encoder) Bool(v bool) {
	if v {
		e.U8(1)
	} else {
		e.U8(0)
	}
}

// Decoder consumes a flat encoding from a byte slice, tracking how
// much it has read so callers can report consumed-size or inspect the
// unconsumed remainder.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder wraps data for sequential field reads.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Consumed returns the number of bytes read so far.
func (d *Decoder) Consumed() int { return d.off }

// Remainder returns the bytes not yet consumed.
func (d *Decoder) Remainder() []byte { return d.data[d.off:] }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.off+n > len(d.data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, len(d.data)-d.off)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) U16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) U32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) U64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) I8() (int8, error) {
	v, err := d.U8()
	return int8(v), err
}

func (d *Decoder) I16() (int16, error) {
	v, err := d.U16()
	return int16(v), err
}

func (d *Decoder) I32() (int32, error) {
	v, err := d.U32()
	return int32(v), err
}

func (d *Decoder) I64() (int64, error) {
	v, err := d.U64()
	return int64(v), err
}

// Bool decodes a single byte: zero is false, anything else is true.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.U8()
	return v != 0, err
}

// Raw reads n raw bytes.
func (d *Decoder) Raw(n int) ([]byte, error) {
	return d.take(n)
}

// RawToEnd consumes and returns every remaining byte -- used by
// schema fields documented as "bytes to end" (a UTF-8 message body, a
// trailing JSON blob).
func (d *Decoder) RawToEnd() []byte {
	b := d.data[d.off:]
	d.off = len(d.data)
	return b
}
