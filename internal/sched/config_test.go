package sched

import (
	"testing"

	yaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAsap, "asap": ModeAsap, "ASAP": ModeAsap, " fifo ": ModeFifo} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMode("lifo")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestConfig_YAML(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("name: fetcher\nconcurrency: 4\nmode: fifo\n"), &cfg))
	assert.Equal(t, Config{Name: "fetcher", Concurrency: 4, Mode: ModeFifo}, cfg)

	err := yaml.Unmarshal([]byte("mode: sideways\n"), &cfg)
	assert.Error(t, err)

	out, err := yaml.Marshal(Config{Name: "x", Concurrency: 1, Mode: ModeFifo})
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: fifo")
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{Concurrency: -1, Mode: Mode(9)}.Normalize()
	assert.Equal(t, DefaultConfig(), cfg)

	kept := Config{Name: "n", Concurrency: 3, Mode: ModeFifo}
	assert.Equal(t, kept, kept.Normalize())
}
