package gpmf

import (
	"encoding/binary"
	"math"
)

// cursor is a read position over an immutable byte slice. All multi-byte
// reads are big-endian, matching the wire format. The base offset is the
// absolute position of the slice within the buffer originally handed to
// Decode, so failures deep inside a container still report a location the
// caller can find in their input.
//
// cursor is a value type: reads advance the receiver through a pointer, and
// copying a cursor forks the read position without copying the data.
type cursor struct {
	data []byte
	pos  int
	base int
}

func newCursor(data []byte) cursor {
	return cursor{data: data}
}

// sub returns a cursor over the next n bytes, consuming them from c. Used to
// bound container decoding to its declared nested length.
func (c *cursor) sub(n int) (cursor, error) {
	b, err := c.bytes(n)
	if err != nil {
		return cursor{}, err
	}
	return cursor{data: b, base: c.base + c.pos - n}, nil
}

// offset is the absolute position in the original Decode buffer.
func (c *cursor) offset() int { return c.base + c.pos }

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) bytes(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, decodeErr(Key{}, c.offset(), ErrInsufficientData,
			"need %d bytes, %d remain", n, c.remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// skip discards n bytes without looking at them. Padding bytes are consumed
// this way and never influence decoded values.
func (c *cursor) skip(n int) error {
	_, err := c.bytes(n)
	return err
}

func (c *cursor) uint8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) uint64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c *cursor) int8() (int8, error) {
	v, err := c.uint8()
	return int8(v), err
}

func (c *cursor) int16() (int16, error) {
	v, err := c.uint16()
	return int16(v), err
}

func (c *cursor) int32() (int32, error) {
	v, err := c.uint32()
	return int32(v), err
}

func (c *cursor) int64() (int64, error) {
	v, err := c.uint64()
	return int64(v), err
}

func (c *cursor) float32() (float32, error) {
	v, err := c.uint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}
