// Package ticker implements the periodic housekeeping tick: every 5 seconds
// it reads process memory usage, applies the two-tier eviction policy,
// clears stale entries, and logs counts.
//
// The scheduling shape is a time.Ticker driving a dedicated goroutine,
// stopped via a close-channel signal. time.Ticker's own semantics give
// drift-resistant behavior: ticks fire on the original schedule, not
// relative to how long the previous tick's work took.
package ticker

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/tempuscache/tempuscached/internal/logging"
	"github.com/tempuscache/tempuscached/internal/pool"
)

// Interval is the fixed housekeeping period.
const Interval = 5 * time.Second

// MemReader returns the daemon's current resident memory usage in bytes.
type MemReader func() (uint64, error)

// Ticker drives a pool's maintenance operations on a fixed schedule.
type Ticker struct {
	pool          *pool.Pool
	logger        *logging.Logger
	memoryLimitMB int
	memReader     MemReader
	now           func() int64

	ticker   *time.Ticker
	stopChan chan struct{}
	doneChan chan struct{}
}

// New returns a Ticker that enforces memoryLimitMB against p, logging
// through logger. now supplies the monotonic clock used for ClearStale.
func New(p *pool.Pool, logger *logging.Logger, memoryLimitMB int, now func() int64) *Ticker {
	return &Ticker{
		pool:          p,
		logger:        logger,
		memoryLimitMB: memoryLimitMB,
		memReader:     readRSS,
		now:           now,
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

// Start launches the background housekeeping goroutine.
func (t *Ticker) Start() {
	t.ticker = time.NewTicker(Interval)

	go func() {
		defer close(t.doneChan)
		for {
			select {
			case <-t.ticker.C:
				t.Tick(t.now())
			case <-t.stopChan:
				t.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the housekeeping goroutine and waits for it to exit.
func (t *Ticker) Stop() {
	close(t.stopChan)
	<-t.doneChan
}

// Tick runs one housekeeping pass at the given monotonic now. It is exposed
// directly so tests can drive deterministic passes without waiting on the
// real 5-second schedule.
func (t *Ticker) Tick(now int64) {
	usage, err := t.memReader()
	if err != nil {
		t.logger.Errorf("ticker: reading memory usage: %v", err)
		usage = 0
	}

	hardBytes := uint64(t.memoryLimitMB) * 1024 * 1024
	softBytes := hardBytes * 3 / 4

	switch {
	case hardBytes > 0 && usage >= hardBytes:
		removed := t.pool.Flush()
		t.logger.Infof("ticker: hard limit reached (usage=%d hard=%d); flushed %d entries", usage, hardBytes, removed)
	case hardBytes > 0 && usage >= softBytes:
		removed := t.pool.ClearLeastRecentlyUsed()
		t.logger.Infof("ticker: soft limit reached (usage=%d soft=%d); evicted %d LRU entries", usage, softBytes, removed)
	}

	staleRemoved := t.pool.ClearStale(now)
	if staleRemoved > 0 {
		t.logger.Infof("ticker: cleared %d stale entries", staleRemoved)
	}

	t.logger.Usagef("ticker: usage=%d bytes items=%d evictions=%d", usage, t.pool.ItemCount(), t.pool.Evictions())
}

// readRSS reads the current process's resident set size via gopsutil,
// a real platform RSS query rather than an internal byte estimator.
func readRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
