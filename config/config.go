// Package config holds the simulator run configuration.
package config

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rvsim/log"
	"github.com/sarchlab/rvsim/timing/cache"
)

// Byte orders accepted for instruction images.
const (
	ByteOrderLittle = "little"
	ByteOrderBig    = "big"
)

// DCacheConfig enables and shapes the data-cache profiler.
type DCacheConfig struct {
	// Enabled attaches the profiler to both cores' data memories.
	// Default: false.
	Enabled bool `json:"enabled"`

	cache.Config
}

// Config holds the parameters of one simulation run.
type Config struct {
	// DataMemorySize is the data memory extent in bytes. Default: 1000.
	DataMemorySize int `json:"data_memory_size"`

	// InstructionMemorySize is the instruction memory extent in bytes.
	// Default: 1000.
	InstructionMemorySize int `json:"instruction_memory_size"`

	// InstructionByteOrder is how four image bytes form an instruction word:
	// "little" or "big". Default: "little".
	InstructionByteOrder string `json:"instruction_byte_order"`

	// MaxCycles bounds each core's run. 0 means no limit. Default: 100000.
	MaxCycles uint64 `json:"max_cycles"`

	// LogLevel is the slog level name. Default: "info".
	LogLevel string `json:"log_level"`

	// TraceRegisters records a register snapshot every cycle, which the
	// register-file dumps need. Default: true.
	TraceRegisters bool `json:"trace_registers"`

	// DCache configures the data-cache profiler.
	DCache DCacheConfig `json:"dcache"`
}

// Default returns a Config with the default values.
func Default() *Config {
	return &Config{
		DataMemorySize:        1000,
		InstructionMemorySize: 1000,
		InstructionByteOrder:  ByteOrderLittle,
		MaxCycles:             100000,
		LogLevel:              "info",
		TraceRegisters:        true,
		DCache: DCacheConfig{
			Enabled: false,
			Config:  cache.DefaultL1DConfig(),
		},
	}
}

// Load reads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.DataMemorySize <= 0 {
		return fmt.Errorf("data_memory_size must be > 0")
	}
	if c.InstructionMemorySize < 4 {
		return fmt.Errorf("instruction_memory_size must be >= 4")
	}
	if _, err := c.ByteOrder(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.DCache.Enabled {
		if err := c.DCache.Validate(); err != nil {
			return fmt.Errorf("dcache: %w", err)
		}
	}
	return nil
}

// ByteOrder returns the instruction byte order.
func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	switch c.InstructionByteOrder {
	case ByteOrderLittle, "":
		return binary.LittleEndian, nil
	case ByteOrderBig:
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("instruction_byte_order must be %q or %q, got %q",
			ByteOrderLittle, ByteOrderBig, c.InstructionByteOrder)
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
