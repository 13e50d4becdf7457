// Package filter compiles CEL predicates over flattened telemetry samples.
// The Benthos processor uses it to keep or drop individual records, e.g.
// `key == "ACCL" && device == "Camera"`.
package filter

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/twinfer/gpmf-plugin/pkg/telemetry"
)

// newEnvironment creates the CEL environment with the sample fields as
// declared variables.
func newEnvironment() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.StdLib(),
		cel.Variable("key", cel.StringType),
		cel.Variable("device", cel.StringType),
		cel.Variable("stream", cel.StringType),
		cel.Variable("index", cel.IntType),
		cel.Variable("value", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// Pool caches compiled CEL predicates keyed by their source text.
type Pool struct {
	mu       sync.RWMutex
	programs map[string]cel.Program
	env      *cel.Env
}

// NewPool creates a pool with a configured CEL environment.
func NewPool() (*Pool, error) {
	env, err := newEnvironment()
	if err != nil {
		return nil, err
	}
	return &Pool{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Get retrieves or compiles the predicate for the given source. The
// expression must evaluate to a boolean.
func (p *Pool) Get(source string) (cel.Program, error) {
	p.mu.RLock()
	if prog, ok := p.programs[source]; ok {
		p.mu.RUnlock()
		return prog, nil
	}
	p.mu.RUnlock()

	ast, issues := p.env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile filter %q: %w", source, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", source, ast.OutputType())
	}

	prog, err := p.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build program for filter %q: %w", source, err)
	}

	p.mu.Lock()
	p.programs[source] = prog
	p.mu.Unlock()
	return prog, nil
}

// Match evaluates the predicate against one flattened sample.
func (p *Pool) Match(source string, s telemetry.Sample) (bool, error) {
	prog, err := p.Get(source)
	if err != nil {
		return false, err
	}

	out, _, err := prog.Eval(map[string]any{
		"key":    s.Key,
		"device": s.Device,
		"stream": s.Stream,
		"index":  s.Index,
		"value":  s.Value,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", source, err)
	}

	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", source, out.Value())
	}
	return b, nil
}
