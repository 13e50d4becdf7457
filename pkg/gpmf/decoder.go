package gpmf

import (
	"log/slog"
)

// DefaultMaxDepth bounds container recursion. The format only documents two
// grouping levels (device, stream), but declares no limit, so adversarial
// input could nest arbitrarily; the guard turns that into a decode failure.
const DefaultMaxDepth = 16

// Observer is called once per decoded record, in decode order, with the
// container nesting depth (0 for top-level records). It replaces in-decoder
// printing: the decoder returns data only, and callers that want tracing
// attach one of these.
type Observer func(depth int, r Record)

// Decoder decodes a complete telemetry track buffer into a record tree. The
// zero value is not usable; construct with NewDecoder. A Decoder holds no
// per-decode state and is safe for concurrent use on independent buffers.
type Decoder struct {
	logger   *slog.Logger
	maxDepth int
	observer Observer
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for debug-level decode tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxDepth overrides the container recursion limit.
func WithMaxDepth(depth int) Option {
	return func(d *Decoder) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// WithObserver attaches a per-record callback.
func WithObserver(fn Observer) Option {
	return func(d *Decoder) {
		d.observer = fn
	}
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes a complete, already-assembled metadata track buffer into
// its ordered top-level records. The buffer must not be mutated while Decode
// runs; the returned tree shares no memory with it.
//
// Any failure aborts the whole decode: the format has no record-boundary
// framing independent of correctly parsed headers, so resynchronizing after
// a bad record would risk reading misaligned bytes as valid records. No
// partial tree is returned.
func (d *Decoder) Decode(data []byte) ([]Record, error) {
	c := newCursor(data)
	records, err := d.decodeSequence(&c, 0)
	if err != nil {
		d.logger.Debug("telemetry decode failed", "input_bytes", len(data), "error", err)
		return nil, err
	}
	d.logger.Debug("telemetry decode complete", "input_bytes", len(data), "top_level_records", len(records))
	return records, nil
}

// Decode decodes data with a one-shot default Decoder.
func Decode(data []byte) ([]Record, error) {
	return NewDecoder().Decode(data)
}

// decodeSequence drives repeated single-record decoding until the slice is
// exhausted. It is used at the top level and recursively inside containers.
func (d *Decoder) decodeSequence(c *cursor, depth int) ([]Record, error) {
	var records []Record
	for c.remaining() > 0 {
		r, err := d.decodeOne(c, depth)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// decodeOne decodes a single record at the cursor: header, then dispatch to
// the container decoder, the payload table, or the fallback.
func (d *Decoder) decodeOne(c *cursor, depth int) (Record, error) {
	start := c.offset()
	h, err := readHeader(c)
	if err != nil {
		return Record{}, err
	}

	var value Value
	if isGrouping(h.key) {
		value, err = d.decodeContainer(h, c, depth)
		if err != nil {
			return Record{}, decodeErr(h.key, start, err, "container of %d nested bytes", h.payloadLen())
		}
	} else {
		fn, known := payloadTable[h.key]
		if !known {
			fn = decodeUnknown
		}
		var consumed int
		value, consumed, err = fn(h, c)
		if err != nil {
			return Record{}, decodeErr(h.key, start, err, "payload of %d elements, size %d", h.count, h.size)
		}
		if err := c.skip(pad4(consumed)); err != nil {
			return Record{}, decodeErr(h.key, start, err, "padding after %d payload bytes", consumed)
		}
	}

	r := Record{Key: h.key, Value: value}
	if d.observer != nil {
		d.observer(depth, r)
	}
	return r, nil
}
