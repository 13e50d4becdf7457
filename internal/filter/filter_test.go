package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/gpmf-plugin/pkg/telemetry"
)

func TestPool_Match(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	sample := telemetry.Sample{
		Key:    "ACCL",
		Device: "Camera",
		Stream: "Accel",
		Index:  2,
		Value:  []any{[]any{int64(1), int64(2), int64(3)}},
	}

	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"match on key", `key == "ACCL"`, true},
		{"reject on key", `key == "GYRO"`, false},
		{"combine device and stream", `device == "Camera" && stream == "Accel"`, true},
		{"index comparison", `index >= 1`, true},
		{"key prefix", `key.startsWith("AC")`, true},
		{"value list size", `size(value) == 1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pool.Match(tt.source, sample)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPool_CompileErrors(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	_, err = pool.Get(`key ==`)
	assert.Error(t, err)

	_, err = pool.Get(`key`)
	assert.Error(t, err, "non-boolean expression must be rejected")

	_, err = pool.Get(`unknown_var == 1`)
	assert.Error(t, err)
}

func TestPool_CachesCompiledPrograms(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	first, err := pool.Get(`key == "ACCL"`)
	require.NoError(t, err)
	second, err := pool.Get(`key == "ACCL"`)
	require.NoError(t, err)
	assert.True(t, first == second, "same source should return the cached program")
}

func TestPool_ConcurrentMatch(t *testing.T) {
	pool, err := NewPool()
	require.NoError(t, err)

	sample := telemetry.Sample{Key: "GYRO", Device: "Camera"}
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				ok, err := pool.Match(`key == "GYRO"`, sample)
				assert.NoError(t, err)
				assert.True(t, ok)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
