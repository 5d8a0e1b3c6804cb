package gatt

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Cursor is a bounds-checked sequential reader over an immutable byte buffer.
// Reads advance the offset by the consumed width; a read that does not fit
// fails with ErrOutOfBounds and leaves the offset unchanged.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor positioned at the start of buf.
// The buffer is never written to.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, %d remaining", ErrOutOfBounds, n, c.off, c.Remaining())
	}
	return nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// ReadU16LE reads a little-endian unsigned 16-bit integer.
func (c *Cursor) ReadU16LE() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// ReadI16LE reads a little-endian two's-complement 16-bit integer.
func (c *Cursor) ReadI16LE() (int16, error) {
	v, err := c.ReadU16LE()
	return int16(v), err
}

// ReadBytes reads n bytes and returns them as a new slice.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.off:c.off+n])
	c.off += n
	return out, nil
}

// Skip advances past n bytes without reading them.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}

// Rest reads every remaining byte. It returns an empty, non-nil slice at the end of the buffer.
func (c *Cursor) Rest() []byte {
	out, _ := c.ReadBytes(c.Remaining())
	return out
}

// ReadSFloat reads a 2-byte IEEE-11073 SFLOAT.
func (c *Cursor) ReadSFloat() (SFloat, error) {
	raw, err := c.ReadU16LE()
	if err != nil {
		return SFloat{}, err
	}
	return DecodeSFloat(raw), nil
}

// ReadDateTime reads a 7-byte date time record.
func (c *Cursor) ReadDateTime() (DateTime, error) {
	b, err := c.ReadBytes(DateTimeSize)
	if err != nil {
		return DateTime{}, err
	}
	return ParseDateTime(b)
}

// HexBytes is an opaque byte field rendered as upper-case hex in text and JSON
type HexBytes []byte

func (h HexBytes) String() string {
	return strings.ToUpper(hex.EncodeToString(h))
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
