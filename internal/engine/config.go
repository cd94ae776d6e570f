package engine

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultSlots           = 3
	defaultCommand         = "go movetime 1000"
	defaultMaxOutputBytes  = 256 << 10
	defaultMaxPendingBytes = 1 << 20
	defaultStopWait        = 2 * time.Second
	readBufSize            = 4096
)

// EngineConfig is the per-slot configuration.
type EngineConfig struct {
	Path string
	// TablebasePath is carried for the command template and status only.
	TablebasePath string
}

// Config encapsulates all tunables for Pool construction.
type Config struct {
	// Slots is the fixed pool size N.
	Slots   int
	Engines []EngineConfig
	Active  Selector
	// Command is the text/template rendered for each think request.
	Command string
	// MaxOutputBytes caps the per-slot output accumulator.
	MaxOutputBytes int
	// MaxPendingBytes bounds the output accepted while an ack is awaited.
	MaxPendingBytes int
	// StopWait bounds how long Stop waits for a slot's goroutines to exit.
	StopWait time.Duration
}

func (c Config) withDefaults() Config {
	if c.Slots <= 0 {
		c.Slots = defaultSlots
	}
	if c.Command == "" {
		c.Command = defaultCommand
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = defaultMaxOutputBytes
	}
	if c.MaxPendingBytes <= 0 {
		c.MaxPendingBytes = defaultMaxPendingBytes
	}
	if c.StopWait <= 0 {
		c.StopWait = defaultStopWait
	}
	return c
}
