package ticker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempuscache/tempuscached/internal/entry"
	"github.com/tempuscache/tempuscached/internal/logging"
	"github.com/tempuscache/tempuscached/internal/pool"
)

func newTestTicker(p *pool.Pool, memoryLimitMB int, usage uint64) *Ticker {
	tk := New(p, logging.New(logging.LevelError), memoryLimitMB, func() int64 { return 0 })
	tk.memReader = func() (uint64, error) { return usage, nil }
	return tk
}

func TestTickBelowSoftLimitEvictsNothing(t *testing.T) {
	p := pool.New()
	p.Set("a", "1", entry.TypeString, 0, 0)
	p.Set("b", "1", entry.TypeString, 0, 0)

	tk := newTestTicker(p, 100, 1) // usage far below soft (75MB)
	tk.Tick(0)

	require.Equal(t, 2, p.ItemCount())
}

func TestTickAtSoftLimitEvictsLRUHalf(t *testing.T) {
	p := pool.New()
	p.Set("a", "1", entry.TypeString, 0, 0)
	p.Set("b", "1", entry.TypeString, 0, 0)
	p.Set("c", "1", entry.TypeString, 0, 0)
	p.Set("d", "1", entry.TypeString, 0, 0)

	softBytes := uint64(100) * 1024 * 1024 * 3 / 4
	tk := newTestTicker(p, 100, softBytes)
	tk.Tick(0)

	assert.Equal(t, 2, p.ItemCount())
}

func TestTickAccumulatesEvictionsAcrossPasses(t *testing.T) {
	p := pool.New()
	for _, k := range []string{"a", "b", "c", "d"} {
		p.Set(k, "1", entry.TypeString, 0, 0)
	}

	softBytes := uint64(100) * 1024 * 1024 * 3 / 4
	tk := newTestTicker(p, 100, softBytes)

	tk.Tick(0) // evicts floor(4/2)=2, leaving 2
	require.Equal(t, uint64(2), p.Evictions())

	tk.Tick(1) // evicts floor(2/2)=1, leaving 1
	require.Equal(t, uint64(3), p.Evictions())
}

func TestTickAtHardLimitFlushesEverything(t *testing.T) {
	p := pool.New()
	p.Set("a", "1", entry.TypeString, 0, 0)
	p.Set("b", "1", entry.TypeString, 0, 0)

	hardBytes := uint64(100) * 1024 * 1024
	tk := newTestTicker(p, 100, hardBytes)
	tk.Tick(0)

	assert.Equal(t, 0, p.ItemCount())
}

func TestTickAlwaysClearsStaleRegardlessOfMemoryPressure(t *testing.T) {
	p := pool.New()
	p.Set("expired", "1", entry.TypeString, 1, 0) // ttl=1, dies at now>=1
	p.Set("alive", "1", entry.TypeString, 0, 0)

	tk := newTestTicker(p, 100, 1) // well below soft limit
	tk.Tick(5)

	assert.Equal(t, 1, p.ItemCount())
	_, found := p.Get("alive", 5)
	assert.True(t, found)
}

func TestTickZeroMemoryLimitDisablesMemoryEviction(t *testing.T) {
	p := pool.New()
	for _, k := range []string{"a", "b", "c", "d"} {
		p.Set(k, "1", entry.TypeString, 0, 0)
	}

	tk := newTestTicker(p, 0, 1_000_000_000) // huge usage, but limit disabled
	tk.Tick(0)

	assert.Equal(t, 4, p.ItemCount())
}

func TestTickTreatsMemReaderErrorAsZeroUsage(t *testing.T) {
	p := pool.New()
	p.Set("a", "1", entry.TypeString, 0, 0)

	tk := New(p, logging.New(logging.LevelError), 100, func() int64 { return 0 })
	tk.memReader = func() (uint64, error) { return 0, errors.New("boom") }

	tk.Tick(0)

	assert.Equal(t, 1, p.ItemCount())
}

func TestStartAndStopDoesNotPanic(t *testing.T) {
	p := pool.New()
	tk := newTestTicker(p, 100, 0)
	tk.Start()
	tk.Stop()
}
