package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twinfer/gpmf-plugin/pkg/gpmf"
)

// Parser wraps the core decoder with conversion helpers and configuration.
type Parser struct {
	decoder *gpmf.Decoder
	logger  *slog.Logger
}

// options holds configuration for the parser.
type options struct {
	logger   *slog.Logger
	maxDepth int
	observer gpmf.Observer
}

// Option is a function that configures parser options.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxDepth overrides the container recursion limit of the underlying
// decoder.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithObserver attaches a per-record callback to the underlying decoder.
func WithObserver(fn gpmf.Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

func defaultOptions() options {
	return options{
		logger:   slog.Default(),
		maxDepth: gpmf.DefaultMaxDepth,
	}
}

// Global parser instance for convenience functions.
var globalParser *Parser
var globalParserOnce sync.Once

func getGlobalParser() *Parser {
	globalParserOnce.Do(func() {
		globalParser = NewParser()
	})
	return globalParser
}

// NewParser creates a new parser instance with the given options.
func NewParser(opts ...Option) *Parser {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Parser{
		decoder: gpmf.NewDecoder(
			gpmf.WithLogger(options.logger),
			gpmf.WithMaxDepth(options.maxDepth),
			gpmf.WithObserver(options.observer),
		),
		logger: options.logger,
	}
}

// Decode decodes a complete metadata track buffer into its record tree.
func Decode(data []byte) ([]gpmf.Record, error) {
	return getGlobalParser().Decode(data)
}

// ToJSON decodes a track buffer and renders the tree as indented JSON.
func ToJSON(data []byte) ([]byte, error) {
	return getGlobalParser().ToJSON(data)
}

// Decode decodes a complete metadata track buffer into its record tree.
func (p *Parser) Decode(data []byte) ([]gpmf.Record, error) {
	records, err := p.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding telemetry: %w", err)
	}
	return records, nil
}

// ToJSON decodes a track buffer and renders the tree as indented JSON.
func (p *Parser) ToJSON(data []byte) ([]byte, error) {
	records, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(TreeMaps(records), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling to JSON: %w", err)
	}
	return out, nil
}

// TreeMaps converts a record tree into generic maps, one per top-level
// record, suitable for JSON marshaling or structured message payloads.
func TreeMaps(records []gpmf.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, RecordMap(r))
	}
	return out
}

// RecordMap converts one record into a generic map. Containers nest under
// "records", unknown payloads keep their raw bytes under "raw", and every
// other variant lands under "value" as a plain Go type.
func RecordMap(r gpmf.Record) map[string]any {
	switch v := r.Value.(type) {
	case gpmf.Container:
		return map[string]any{"key": r.Key.String(), "records": TreeMaps(v)}
	case gpmf.Unknown:
		return map[string]any{"key": v.Label, "raw": v.Raw}
	default:
		return map[string]any{"key": r.Key.String(), "value": valueToAny(r.Value)}
	}
}

// valueToAny flattens a typed payload to plain Go types: signed integers
// widen to int64, unsigned to uint64, floats to float64, and tuple lists
// become nested []any. The switch is exhaustive over the variant set.
func valueToAny(v gpmf.Value) any {
	switch v := v.(type) {
	case gpmf.DeviceID:
		return uint64(v)
	case gpmf.TotalSamples:
		return uint64(v)
	case gpmf.Temperature:
		return float64(v)
	case gpmf.Timestamp:
		return uint64(v)
	case gpmf.Text:
		return string(v)
	case gpmf.Unit:
		return string(v)
	case gpmf.Triplets:
		out := make([]any, 0, len(v))
		for _, t := range v {
			out = append(out, []any{int64(t[0]), int64(t[1]), int64(t[2])})
		}
		return out
	case gpmf.Quartets:
		out := make([]any, 0, len(v))
		for _, q := range v {
			out = append(out, []any{int64(q[0]), int64(q[1]), int64(q[2]), int64(q[3])})
		}
		return out
	case gpmf.Floats:
		out := make([]any, 0, len(v))
		for _, f := range v {
			out = append(out, float64(f))
		}
		return out
	case gpmf.Uint16s:
		out := make([]any, 0, len(v))
		for _, u := range v {
			out = append(out, uint64(u))
		}
		return out
	case gpmf.Int16s:
		out := make([]any, 0, len(v))
		for _, i := range v {
			out = append(out, int64(i))
		}
		return out
	case gpmf.BytePairs:
		out := make([]any, 0, len(v))
		for _, p := range v {
			out = append(out, []any{uint64(p[0]), uint64(p[1])})
		}
		return out
	case gpmf.ByteTriples:
		out := make([]any, 0, len(v))
		for _, t := range v {
			out = append(out, []any{uint64(t[0]), uint64(t[1]), uint64(t[2])})
		}
		return out
	case gpmf.ScaleFactor:
		if v.Vector == nil {
			return int64(v.Divisor)
		}
		out := make([]any, 0, len(v.Vector))
		for _, s := range v.Vector {
			out = append(out, int64(s))
		}
		return out
	case gpmf.Container:
		return TreeMaps(v)
	case gpmf.Unknown:
		return v.Raw
	default:
		// Unreachable while the variant set stays closed.
		return fmt.Sprintf("%v", v)
	}
}

// Sample is one leaf record flattened out of the tree, attributed to the
// device and stream groups that enclose it.
type Sample struct {
	Key    string `json:"key"`
	Device string `json:"device"`
	Stream string `json:"stream"`
	Index  int    `json:"index"`
	Value  any    `json:"value"`
}

// Flatten walks the tree and returns one Sample per leaf record. Device and
// stream attribution comes from the DVNM and STNM records of the enclosing
// containers; Index is the record's position within its container.
func Flatten(records []gpmf.Record) []Sample {
	var out []Sample
	flattenInto(&out, records, "", "")
	return out
}

func flattenInto(out *[]Sample, records []gpmf.Record, device, stream string) {
	// Names declared anywhere in this group apply to all of its records.
	for _, r := range records {
		if v, ok := r.Value.(gpmf.Text); ok {
			switch r.Key {
			case gpmf.KeyDeviceName:
				device = string(v)
			case gpmf.KeyStreamName:
				stream = string(v)
			}
		}
	}
	for i, r := range records {
		if c, ok := r.Value.(gpmf.Container); ok {
			flattenInto(out, c, device, stream)
			continue
		}
		*out = append(*out, Sample{
			Key:    r.Key.String(),
			Device: device,
			Stream: stream,
			Index:  i,
			Value:  valueToAny(r.Value),
		})
	}
}
