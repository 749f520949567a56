package sched

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the order in which task outcomes are emitted.
type Mode int

const (
	// ModeAsap emits each outcome as soon as its task settles.
	ModeAsap Mode = iota
	// ModeFifo emits outcomes in submission order. A settled task is held
	// until every task submitted before it has been emitted.
	ModeFifo
)

var ErrInvalidMode = errors.New("invalid scheduler mode")

func (m Mode) String() string {
	switch m {
	case ModeAsap:
		return "asap"
	case ModeFifo:
		return "fifo"
	default:
		return "unknown"
	}
}

// ParseMode accepts "asap" or "fifo", case-insensitively. Empty means asap.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asap":
		return ModeAsap, nil
	case "fifo":
		return ModeFifo, nil
	default:
		return ModeAsap, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// UnmarshalYAML lets config files spell the mode as a string.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the mode by name.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Config mirrors the scheduler section of the config file
type Config struct {
	Name        string `yaml:"name"`        // diagnostics only
	Concurrency int    `yaml:"concurrency"` // 20 (by default)
	Mode        Mode   `yaml:"mode"`        // asap (by default)
}

// DefaultConfig is used when no config file is given
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		Concurrency: 20,
		Mode:        ModeAsap,
	}
}

// Normalize applies sanity clamps so a partially filled config is usable.
func (c Config) Normalize() Config {
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 20
	}
	if c.Mode != ModeAsap && c.Mode != ModeFifo {
		c.Mode = ModeAsap
	}
	return c
}
