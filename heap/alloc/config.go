package alloc

import "github.com/joshuapare/heapkit/internal/format"

const (
	// DefaultChunkSize is the minimum heap growth step in bytes.
	DefaultChunkSize = 4096

	// DefaultMaxFitScan bounds how many fitting candidates a bucket scan
	// examines before settling for the best seen so far.
	DefaultMaxFitScan = 10
)

// Config tunes allocator behavior.
type Config struct {
	// ChunkSize is the minimum number of bytes the heap grows by when no
	// free block fits. Rounded up to the alignment; 0 means DefaultChunkSize.
	ChunkSize uint64

	// MaxFitScan bounds the best-fit scan of a size bucket. 0 or negative
	// means DefaultMaxFitScan.
	MaxFitScan int

	// Strict makes Free and Realloc verify that the referenced block is
	// currently allocated, surfacing double-frees as ErrNotAllocated
	// instead of corrupting the heap.
	Strict bool
}

// DefaultConfig returns the default allocator configuration.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:  DefaultChunkSize,
		MaxFitScan: DefaultMaxFitScan,
	}
}

func normalizeConfig(cfg *Config) Config {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	c.ChunkSize = format.AlignUp(c.ChunkSize)
	if c.MaxFitScan <= 0 {
		c.MaxFitScan = DefaultMaxFitScan
	}
	return c
}
