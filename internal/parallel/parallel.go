// Package parallel splits element-wise CPU kernels across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4096,
	}
}

// Sequential returns a configuration that never spawns goroutines.
func Sequential() Config {
	return Config{}
}

// Range calls f on disjoint chunks [start, end) that together cover [0, n).
// Chunks run concurrently when the configuration allows it; f must only write
// to indices inside its own chunk.
func Range(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// Rows calls f once per row index in [0, rows), where each row holds cols items.
// The work is chunked by row so that a chunk carries at least MinChunkSize items.
func Rows(rows, cols int, f func(row int), cfg Config) {
	if cols > 0 && cfg.MinChunkSize > 0 {
		cfg.MinChunkSize = max(1, cfg.MinChunkSize/cols)
	}
	Range(rows, func(start, end int) {
		for r := start; r < end; r++ {
			f(r)
		}
	}, cfg)
}
