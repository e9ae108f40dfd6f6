package cpu

import (
	"fmt"
	"iter"
	"maps"
)

const (
	DATA_SIZE   = 1024 // Default data memory cells
	DATA_WINDOW = 50   // Default data memory cells in a State
)

// Config sizes the memories of a Cpu.
type Config struct {
	DataSize   int // Data memory cells.
	StackLimit int // Maximum operand stack depth.
	DataWindow int // Data memory cells copied into a State. Negative copies all.
	TraceDepth int // History entries kept. Zero disables tracing.
}

// DefaultConfig returns the default memory sizing, with tracing disabled.
func DefaultConfig() Config {
	return Config{
		DataSize:   DATA_SIZE,
		StackLimit: STACK_LIMIT,
		DataWindow: DATA_WINDOW,
	}
}

// normalize replaces unset sizes with their defaults.
func (cfg Config) normalize() Config {
	def := DefaultConfig()
	if cfg.DataSize <= 0 {
		cfg.DataSize = def.DataSize
	}
	if cfg.StackLimit <= 0 {
		cfg.StackLimit = def.StackLimit
	}
	if cfg.DataWindow == 0 {
		cfg.DataWindow = def.DataWindow
	}
	if cfg.TraceDepth < 0 {
		cfg.TraceDepth = 0
	}
	return cfg
}

// Defines returns the assembler equates describing a machine of this size.
func (cfg Config) Defines() iter.Seq2[string, string] {
	cfg = cfg.normalize()
	return maps.All(map[string]string{
		"DATA_SIZE":   fmt.Sprintf("%v", cfg.DataSize),
		"STACK_LIMIT": fmt.Sprintf("%v", cfg.StackLimit),
	})
}
