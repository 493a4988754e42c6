package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// FaultMode selects which single byte of the data profile's chunked body is
// corrupted before the catalog is frozen. Modes are mutually exclusive; the
// offsets correspond to the chunk-size digit of the first chunk, the size
// digits of the second chunk and the byte right after them.
type FaultMode uint8

const (
	FaultNone FaultMode = iota
	FaultChunkStart
	FaultChunkBoundary
	FaultMidChunk
)

var _ pflag.Value = new(FaultMode)

var faultModeNames = map[FaultMode]string{
	FaultNone:          "none",
	FaultChunkStart:    "chunk-start",
	FaultChunkBoundary: "chunk-boundary",
	FaultMidChunk:      "mid-chunk",
}

func (f FaultMode) String() string {
	if name, ok := faultModeNames[f]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", uint8(f))
}

// Set implements pflag.Value, so a FaultMode can be bound as a flag directly.
func (f *FaultMode) Set(value string) error {
	for mode, name := range faultModeNames {
		if name == value {
			*f = mode
			return nil
		}
	}

	return fmt.Errorf("unknown fault mode: %q (want none, chunk-start, chunk-boundary or mid-chunk)", value)
}

// Type implements pflag.Value.
func (f FaultMode) Type() string {
	return "fault-mode"
}

// DefaultSplitOffset is the capture's write boundary: the 505-byte response
// head plus the complete first chunk (15 bytes), so the first write leaves
// the host as the 520-byte TCP segment observed in the failing capture.
const DefaultSplitOffset = 520

type (
	NET struct {
		// ReadBufferSize is the size of the per-connection buffer the request
		// head is read into.
		ReadBufferSize int
		// MaxHeaderBytes limits the total size of a request head (request line
		// plus the header block). Requests exceeding it are treated as malformed.
		MaxHeaderBytes int
	}

	API struct {
		// Addr is the address of the diagnostics endpoint (/metrics, /version,
		// /readyz). Empty disables it.
		Addr string `test:"nullable"`
	}

	Log struct {
		// Level is a zap level string: debug, info, warn or error.
		Level string
	}
)

// Config holds the injector's startup configuration. Use Default() and modify
// the result instead of constructing the struct manually.
type Config struct {
	// Addr is the address the injector listens on.
	Addr string
	// SplitOffset is the byte offset into the fully serialized data response
	// (status line, headers, CRLF and body) at which the output is divided
	// into the two transport writes. Must stay strictly inside the response;
	// the bounds are checked against the rendered catalog at startup.
	SplitOffset int
	// Fault is the corruption mode applied to the data profile's body.
	Fault FaultMode `test:"nullable"`

	NET NET
	API API
	Log Log
}

// Default returns the configuration matching the original capture: the port
// the reproduction server ran on, the capture's split boundary and no fault.
func Default() *Config {
	return &Config{
		Addr:        ":8307",
		SplitOffset: DefaultSplitOffset,
		Fault:       FaultNone,
		NET: NET{
			ReadBufferSize: 2 * 1024,
			MaxHeaderBytes: 16 * 1024,
		},
		API: API{},
		Log: Log{Level: "info"},
	}
}

// Validate checks the static part of the configuration. Split bounds are
// checked separately with ValidateSplitOffset once the serialized response
// length is known.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: listen address is empty")
	}

	if c.NET.ReadBufferSize <= 0 {
		return fmt.Errorf("config: read buffer size must be positive, got %d", c.NET.ReadBufferSize)
	}

	if c.NET.MaxHeaderBytes < c.NET.ReadBufferSize {
		return fmt.Errorf(
			"config: max header bytes (%d) must not be less than read buffer size (%d)",
			c.NET.MaxHeaderBytes, c.NET.ReadBufferSize,
		)
	}

	if c.SplitOffset <= 0 {
		return fmt.Errorf("config: split offset must be positive, got %d", c.SplitOffset)
	}

	if _, ok := faultModeNames[c.Fault]; !ok {
		return fmt.Errorf("config: unknown fault mode %d", c.Fault)
	}

	return nil
}

// ValidateSplitOffset rejects split offsets that would not produce two
// non-empty writes of the serialized response. It runs at startup, never at
// request time.
func ValidateSplitOffset(split, total int) error {
	if split <= 0 || split >= total {
		return fmt.Errorf(
			"config: split offset %d is out of range, must be within (0, %d)", split, total,
		)
	}

	return nil
}
