// Package testutil builds wire-format telemetry records for tests. It
// deliberately does not import pkg/gpmf, so decoder tests exercise the real
// byte layout rather than round-tripping through package constants.
package testutil

import (
	"encoding/binary"
	"math"
)

// Rec assembles one KLV record: 4-byte key, tag, size, big-endian count,
// payload, and zero padding up to the next 4-byte boundary. It panics on a
// key that is not 4 bytes; tests always pass literals.
func Rec(key string, tag byte, size uint8, count uint16, payload []byte) []byte {
	return RecPad(key, tag, size, count, payload, 0x00)
}

// RecPad is Rec with an explicit padding byte value, for tests asserting
// padding content never affects decoded values.
func RecPad(key string, tag byte, size uint8, count uint16, payload []byte, pad byte) []byte {
	if len(key) != 4 {
		panic("testutil: key must be 4 bytes")
	}
	b := make([]byte, 0, 8+len(payload)+3)
	b = append(b, key...)
	b = append(b, tag, size)
	b = binary.BigEndian.AppendUint16(b, count)
	b = append(b, payload...)
	for i := (4 - len(payload)%4) % 4; i > 0; i-- {
		b = append(b, pad)
	}
	return b
}

// Group assembles a grouping record (tag 0) whose payload is the
// concatenation of already-encoded child records, declared with element
// size 1 and count equal to the nested byte length.
func Group(key string, children ...[]byte) []byte {
	var nested []byte
	for _, c := range children {
		nested = append(nested, c...)
	}
	if len(nested) > math.MaxUint16 {
		panic("testutil: nested payload exceeds a uint16 count")
	}
	return Rec(key, 0, 1, uint16(len(nested)), nested)
}

// U16 appends big-endian 16-bit values.
func U16(vals ...uint16) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	return b
}

// U32 appends big-endian 32-bit values.
func U32(vals ...uint32) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint32(b, v)
	}
	return b
}

// U64 appends big-endian 64-bit values.
func U64(vals ...uint64) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint64(b, v)
	}
	return b
}

// I16 appends big-endian signed 16-bit values.
func I16(vals ...int16) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint16(b, uint16(v))
	}
	return b
}

// I32 appends big-endian signed 32-bit values.
func I32(vals ...int32) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint32(b, uint32(v))
	}
	return b
}

// F32 appends big-endian IEEE 754 32-bit floats.
func F32(vals ...float32) []byte {
	var b []byte
	for _, v := range vals {
		b = binary.BigEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

// Cat concatenates encoded records into one buffer.
func Cat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}
