package gpmf

import "fmt"

// isGrouping reports whether a key is one of the two grouping containers.
func isGrouping(k Key) bool {
	return k == KeyDevice || k == KeyStream
}

// decodeContainer decodes a grouping record (DEVC or STRM): its payload is
// itself a complete record sequence of exactly size*count bytes. The nested
// length is exact, not rounded, so no padding is skipped here beyond what
// each child already consumed internally.
func (d *Decoder) decodeContainer(h header, c *cursor, depth int) (Value, error) {
	if h.tag != TagNested {
		return nil, fmt.Errorf("element tag %s, want %s: %w", tagName(h.tag), tagName(TagNested), ErrFormatMismatch)
	}
	if depth >= d.maxDepth {
		return nil, fmt.Errorf("nesting depth %d exceeds limit %d: %w", depth+1, d.maxDepth, ErrFormatMismatch)
	}
	sub, err := c.sub(h.payloadLen())
	if err != nil {
		return nil, err
	}
	children, err := d.decodeSequence(&sub, depth+1)
	if err != nil {
		return nil, err
	}
	if sub.remaining() != 0 {
		return nil, decodeErr(h.key, sub.offset(), ErrTrailingData,
			"%d of %d nested bytes left unconsumed", sub.remaining(), h.payloadLen())
	}
	return Container(children), nil
}
