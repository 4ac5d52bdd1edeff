package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRange_CoversEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 10}

	n := 1000
	seen := make([]int32, n)
	var calls int64
	Range(n, func(start, end int) {
		atomic.AddInt64(&calls, 1)
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	}, cfg)

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
	if calls != 4 {
		t.Errorf("expected 4 chunks, got %d", calls)
	}
}

func TestRange_Sequential(t *testing.T) {
	var calls int
	Range(100, func(start, end int) {
		calls++
		if start != 0 || end != 100 {
			t.Errorf("expected a single [0, 100) chunk, got [%d, %d)", start, end)
		}
	}, Sequential())

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRange_SmallInputStaysOnCaller(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	var calls int
	Range(100, func(_, _ int) { calls++ }, cfg)
	if calls != 1 {
		t.Errorf("expected sequential fallback, got %d chunks", calls)
	}

	Range(0, func(_, _ int) { t.Error("called for empty range") }, cfg)
}

func TestRows(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 8}

	var mu sync.Mutex
	rows := make(map[int]bool)
	Rows(30, 4, func(r int) {
		mu.Lock()
		defer mu.Unlock()
		if rows[r] {
			t.Errorf("row %d visited twice", r)
		}
		rows[r] = true
	}, cfg)

	if len(rows) != 30 {
		t.Errorf("expected 30 rows, got %d", len(rows))
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.Enabled != (cfg.NumWorkers > 1) {
		t.Errorf("Enabled = %v with %d workers", cfg.Enabled, cfg.NumWorkers)
	}
}
