package gpmf

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// payloadFunc decodes the payload of one leaf record. The cursor is
// positioned at the first payload byte. It returns the typed value and the
// number of payload bytes consumed; the caller skips the trailing padding
// computed from that count.
type payloadFunc func(h header, c *cursor) (Value, int, error)

// payloadTable maps each known leaf key to its decoder's routine. Grouping
// keys (DEVC, STRM) are dispatched before this table is consulted; any key
// absent here falls through to decodeUnknown.
var payloadTable = map[Key]payloadFunc{
	KeyDeviceID:        decodeDeviceID,
	KeyTotalSamples:    decodeTotalSamples,
	KeyTemperature:     decodeTemperature,
	KeyTimestamp:       decodeTimestamp,
	KeyDeviceName:      decodeText,
	KeyStreamName:      decodeText,
	KeyOrientation:     decodeText,
	KeyGPSTime:         decodeText,
	KeyTypeLabel:       decodeText,
	KeyUnits:           decodeUnits,
	KeyScale:           decodeScale,
	KeyAccel:           decodeTriplets,
	KeyGyro:            decodeTriplets,
	KeyGravity:         decodeTriplets,
	KeyCameraOrient:    decodeQuartets,
	KeyImageOrient:     decodeQuartets,
	KeyShutter:         decodeFloats,
	KeyWhiteBalanceRGB: decodeFloats,
	KeyUniformity:      decodeFloats,
	KeyWhiteBalance:    decodeUint16s,
	KeyISO:             decodeUint16s,
	KeyWindProcessing:  decodeBytePairs,
	KeyMicWet:          decodeBytePairs,
	KeyAudioLevel:      decodeByteTriples,
	KeyMediaSkip:       decodeInt16s,
	KeyLowResSkip:      decodeInt16s,
}

// want checks the element type tag and size against the fixed expectation
// for the dispatched key. Each key admits exactly one (tag, size) pair,
// except SCAL which branches on the tag in decodeScale.
func (h header) want(tag byte, size uint8) error {
	if h.tag != tag {
		return fmt.Errorf("element tag %s, want %s: %w", tagName(h.tag), tagName(tag), ErrFormatMismatch)
	}
	if h.size != size {
		return fmt.Errorf("element size %d, want %d: %w", h.size, size, ErrFormatMismatch)
	}
	return nil
}

// wantOne rejects identity-style records that declare more than one element.
func (h header) wantOne() error {
	if h.count != 1 {
		return fmt.Errorf("element count %d, want 1: %w", h.count, ErrFormatMismatch)
	}
	return nil
}

func decodeDeviceID(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint32, 4); err != nil {
		return nil, 0, err
	}
	if err := h.wantOne(); err != nil {
		return nil, 0, err
	}
	v, err := c.uint32()
	return DeviceID(v), 4, err
}

func decodeTotalSamples(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint32, 4); err != nil {
		return nil, 0, err
	}
	if err := h.wantOne(); err != nil {
		return nil, 0, err
	}
	v, err := c.uint32()
	return TotalSamples(v), 4, err
}

func decodeTemperature(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagFloat32, 4); err != nil {
		return nil, 0, err
	}
	if err := h.wantOne(); err != nil {
		return nil, 0, err
	}
	v, err := c.float32()
	return Temperature(v), 4, err
}

func decodeTimestamp(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint64, 8); err != nil {
		return nil, 0, err
	}
	if err := h.wantOne(); err != nil {
		return nil, 0, err
	}
	v, err := c.uint64()
	return Timestamp(v), 8, err
}

// decodeText reads size*count bytes as strict UTF-8.
func decodeText(h header, c *cursor) (Value, int, error) {
	if h.tag != TagChar {
		return nil, 0, fmt.Errorf("element tag %s, want %s: %w", tagName(h.tag), tagName(TagChar), ErrFormatMismatch)
	}
	n := h.payloadLen()
	b, err := c.bytes(n)
	if err != nil {
		return nil, 0, err
	}
	if !utf8.Valid(b) {
		return nil, 0, fmt.Errorf("%d-byte text payload is not UTF-8: %w", n, ErrInvalidText)
	}
	return Text(b), n, nil
}

// decodeUnits reads an SI unit string. Unit records declare an element size
// one byte larger than the stored per-element text length, so the consumed
// length is (size-1)*count. A trailing raw 0xB2 byte (Latin-1 superscript
// two) is translated to the ASCII digit '2'; no other byte is substituted.
// The bytes are then decoded as Latin-1, which covers every unit string seen
// in real captures, including degree signs and micro prefixes.
func decodeUnits(h header, c *cursor) (Value, int, error) {
	if h.tag != TagChar {
		return nil, 0, fmt.Errorf("element tag %s, want %s: %w", tagName(h.tag), tagName(TagChar), ErrFormatMismatch)
	}
	if h.size == 0 {
		return nil, 0, fmt.Errorf("element size 0, want at least 1: %w", ErrFormatMismatch)
	}
	n := (int(h.size) - 1) * int(h.count)
	b, err := c.bytes(n)
	if err != nil {
		return nil, 0, err
	}
	if n > 0 && b[n-1] == 0xB2 {
		fixed := make([]byte, n)
		copy(fixed, b)
		fixed[n-1] = '2'
		b = fixed
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return nil, 0, fmt.Errorf("%d-byte unit payload: %w", n, ErrInvalidText)
	}
	return Unit(s), n, nil
}

// decodeScale handles the two wire shapes of SCAL: a single signed 16-bit
// divisor, or a vector of signed 32-bit divisors for GPS-style streams. The
// shape is selected by the element type tag.
func decodeScale(h header, c *cursor) (Value, int, error) {
	switch h.tag {
	case TagInt16:
		if h.size != 2 {
			return nil, 0, fmt.Errorf("element size %d, want 2: %w", h.size, ErrFormatMismatch)
		}
		if err := h.wantOne(); err != nil {
			return nil, 0, err
		}
		v, err := c.int16()
		return ScaleFactor{Divisor: v}, 2, err
	case TagInt32:
		if h.size != 4 {
			return nil, 0, fmt.Errorf("element size %d, want 4: %w", h.size, ErrFormatMismatch)
		}
		vec := make([]int32, 0, h.count)
		for i := 0; i < int(h.count); i++ {
			v, err := c.int32()
			if err != nil {
				return nil, 0, err
			}
			vec = append(vec, v)
		}
		return ScaleFactor{Vector: vec}, h.payloadLen(), nil
	default:
		return nil, 0, fmt.Errorf("element tag %s, want %s or %s: %w",
			tagName(h.tag), tagName(TagInt16), tagName(TagInt32), ErrFormatMismatch)
	}
}

func decodeTriplets(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagInt16, 6); err != nil {
		return nil, 0, err
	}
	out := make(Triplets, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		var t [3]int16
		for j := range t {
			v, err := c.int16()
			if err != nil {
				return nil, 0, err
			}
			t[j] = v
		}
		out = append(out, t)
	}
	return out, h.payloadLen(), nil
}

func decodeQuartets(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagInt16, 8); err != nil {
		return nil, 0, err
	}
	out := make(Quartets, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		var q [4]int16
		for j := range q {
			v, err := c.int16()
			if err != nil {
				return nil, 0, err
			}
			q[j] = v
		}
		out = append(out, q)
	}
	return out, h.payloadLen(), nil
}

func decodeFloats(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagFloat32, 4); err != nil {
		return nil, 0, err
	}
	out := make(Floats, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		v, err := c.float32()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, h.payloadLen(), nil
}

func decodeUint16s(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint16, 2); err != nil {
		return nil, 0, err
	}
	out := make(Uint16s, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		v, err := c.uint16()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, h.payloadLen(), nil
}

func decodeInt16s(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagInt16, 2); err != nil {
		return nil, 0, err
	}
	out := make(Int16s, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		v, err := c.int16()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, h.payloadLen(), nil
}

func decodeBytePairs(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint8, 2); err != nil {
		return nil, 0, err
	}
	out := make(BytePairs, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		b, err := c.bytes(2)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, [2]uint8{b[0], b[1]})
	}
	return out, h.payloadLen(), nil
}

func decodeByteTriples(h header, c *cursor) (Value, int, error) {
	if err := h.want(TagUint8, 3); err != nil {
		return nil, 0, err
	}
	out := make(ByteTriples, 0, h.count)
	for i := 0; i < int(h.count); i++ {
		b, err := c.bytes(3)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, [3]uint8{b[0], b[1], b[2]})
	}
	return out, h.payloadLen(), nil
}

// decodeUnknown is the fallback for keys without a table entry. The format
// marks vendor extensions with the custom tag; anything else under an
// unknown key is unrecoverable, because nothing downstream of a misread
// header can be trusted.
func decodeUnknown(h header, c *cursor) (Value, int, error) {
	if h.tag != TagCustom {
		return nil, 0, fmt.Errorf("no decoder for key and element tag %s is not %s: %w",
			tagName(h.tag), tagName(TagCustom), ErrUnknownBlockType)
	}
	n := h.payloadLen()
	b, err := c.bytes(n)
	if err != nil {
		return nil, 0, err
	}
	raw := make([]byte, n)
	copy(raw, b)
	return Unknown{Label: h.key.String(), Raw: raw}, n, nil
}
