package main

import (
	"context"
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/twinfer/gpmf-plugin/internal/filter"
	"github.com/twinfer/gpmf-plugin/pkg/gpmf"
	"github.com/twinfer/gpmf-plugin/pkg/telemetry"
)

// TelemetryProcessor is a Benthos processor that decodes embedded camera
// telemetry tracks into structured messages.
type TelemetryProcessor struct {
	config     TelemetryConfig
	filterPool *filter.Pool
	parser     *telemetry.Parser
	logger     *service.Logger
	mDecoded   *service.MetricCounter
	mRecords   *service.MetricCounter
	mFiltered  *service.MetricCounter
	mErrors    *service.MetricCounter
}

// TelemetryConfig contains configuration parameters for the gpmf processor.
type TelemetryConfig struct {
	RawOutput bool   `json:"raw_output" yaml:"raw_output"`
	Filter    string `json:"filter" yaml:"filter"`
	MaxDepth  int    `json:"max_depth" yaml:"max_depth"`
}

func init() {
	err := service.RegisterProcessor(
		"gpmf",
		telemetryProcessorConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.Processor, error) {
			return newTelemetryProcessorFromConfig(conf, mgr)
		},
	)
	if err != nil {
		panic(err)
	}
}

// telemetryProcessorConfig returns a config spec for a gpmf processor.
func telemetryProcessorConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Decodes embedded camera telemetry (KLV metadata tracks) into structured records.").
		Description("This processor decodes a complete extracted metadata track from the message payload into either the nested record tree or a flat list of device/stream-attributed samples, optionally filtered with a CEL predicate.").
		Field(service.NewBoolField("raw_output").
			Description("Emit the nested record tree (true) instead of flattened samples (false).").
			Default(false)).
		Field(service.NewStringField("filter").
			Description("CEL predicate applied to each flattened sample; variables: key, device, stream, index, value. Empty keeps everything. Ignored when raw_output is true.").
			Example(`key == "ACCL" && device == "Camera"`).
			Default("")).
		Field(service.NewIntField("max_depth").
			Description("Container recursion limit for the decoder.").
			Default(gpmf.DefaultMaxDepth)).
		Version("0.1.0")
}

// newTelemetryProcessorFromConfig creates a new TelemetryProcessor from a
// parsed config.
func newTelemetryProcessorFromConfig(conf *service.ParsedConfig, mgr *service.Resources) (*TelemetryProcessor, error) {
	rawOutput, err := conf.FieldBool("raw_output")
	if err != nil {
		return nil, err
	}

	filterSource, err := conf.FieldString("filter")
	if err != nil {
		return nil, err
	}

	maxDepth, err := conf.FieldInt("max_depth")
	if err != nil {
		return nil, err
	}

	config := TelemetryConfig{
		RawOutput: rawOutput,
		Filter:    filterSource,
		MaxDepth:  maxDepth,
	}

	pool, err := filter.NewPool()
	if err != nil {
		return nil, fmt.Errorf("creating filter pool: %w", err)
	}

	// Compile eagerly so a bad predicate fails pipeline startup, not the
	// first message.
	if config.Filter != "" {
		if _, err := pool.Get(config.Filter); err != nil {
			return nil, err
		}
	}

	logger := mgr.Logger()
	metrics := mgr.Metrics()

	return &TelemetryProcessor{
		config:     config,
		filterPool: pool,
		parser:     telemetry.NewParser(telemetry.WithMaxDepth(config.MaxDepth)),
		logger:     logger,
		mDecoded:   metrics.NewCounter("gpmf_decoded_messages"),
		mRecords:   metrics.NewCounter("gpmf_decoded_records"),
		mFiltered:  metrics.NewCounter("gpmf_filtered_records"),
		mErrors:    metrics.NewCounter("gpmf_decode_errors"),
	}, nil
}

// Process decodes one message's binary payload into structured telemetry.
func (p *TelemetryProcessor) Process(ctx context.Context, msg *service.Message) (service.MessageBatch, error) {
	binData, err := msg.AsBytes()
	if err != nil {
		p.logger.Errorf("Failed to get binary data from message: %v", err)
		p.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to get binary data from message: %w", err))
		return service.MessageBatch{msg}, nil
	}

	records, err := p.parser.Decode(binData)
	if err != nil {
		p.logger.Errorf("Failed to decode telemetry track of size %d bytes: %v", len(binData), err)
		p.mErrors.Incr(1)
		msg.SetError(fmt.Errorf("failed to decode telemetry track of size %d bytes: %w", len(binData), err))
		return service.MessageBatch{msg}, nil
	}

	// Structured payloads are built from generic values so downstream
	// mapping stages can address them directly.
	structured := make([]any, 0)
	if p.config.RawOutput {
		for _, m := range telemetry.TreeMaps(records) {
			structured = append(structured, m)
		}
	} else {
		for _, s := range telemetry.Flatten(records) {
			if p.config.Filter != "" {
				ok, err := p.filterPool.Match(p.config.Filter, s)
				if err != nil {
					p.logger.Errorf("Filter evaluation failed: %v", err)
					p.mErrors.Incr(1)
					msg.SetError(fmt.Errorf("filter evaluation failed: %w", err))
					return service.MessageBatch{msg}, nil
				}
				if !ok {
					p.mFiltered.Incr(1)
					continue
				}
			}
			structured = append(structured, map[string]any{
				"key":    s.Key,
				"device": s.Device,
				"stream": s.Stream,
				"index":  s.Index,
				"value":  s.Value,
			})
		}
	}
	recordCount := len(structured)

	p.logger.Debugf("Decoded %d bytes of telemetry into %d records", len(binData), recordCount)
	p.mDecoded.Incr(1)
	p.mRecords.Incr(int64(recordCount))

	newMsg := service.NewMessage(nil)
	newMsg.SetStructured(structured)

	msg.MetaWalk(func(key, value string) error {
		newMsg.MetaSet(key, value)
		return nil
	})

	return service.MessageBatch{newMsg}, nil
}

// Close releases processor resources.
func (p *TelemetryProcessor) Close(ctx context.Context) error {
	return nil
}

func main() {
	service.RunCLI(context.Background())
}
