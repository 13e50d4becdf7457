package gpmf

// header is the fixed 8-byte prefix of every record:
// 4-byte key, 1-byte element type tag, 1-byte element size, 2-byte
// big-endian element count.
type header struct {
	key   Key
	tag   byte
	size  uint8
	count uint16
}

// payloadLen is the number of payload bytes declared by the header. The
// unit-string decoder overrides this; see decodeUnits.
func (h header) payloadLen() int {
	return int(h.size) * int(h.count)
}

// readHeader consumes one record header. The key is kept as opaque bytes;
// tag and size validation is deferred to the per-key decoder, which knows
// the expected values. The only failure here is running out of bytes.
func readHeader(c *cursor) (header, error) {
	var h header
	kb, err := c.bytes(4)
	if err != nil {
		return h, err
	}
	copy(h.key[:], kb)
	if h.tag, err = c.uint8(); err != nil {
		return h, err
	}
	if h.size, err = c.uint8(); err != nil {
		return h, err
	}
	if h.count, err = c.uint16(); err != nil {
		return h, err
	}
	return h, nil
}

// pad4 is the number of discardable bytes following a payload of length n:
// payloads are rounded up to the next 4-byte boundary on the wire.
func pad4(n int) int {
	return (4 - n%4) % 4
}
