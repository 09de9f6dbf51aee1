// Package pool implements the cache engine: the map of key to Entry plus the
// two orderings (insertion, recency) that drive status reporting and
// eviction. This is the core of tempuscached.
//
// ================================================================================
// ARCHITECTURAL OVERVIEW
// ================================================================================
//
// The pool combines three structures:
//
//  1. Hash map (map[string]*list.Element) — O(1) key lookup into the
//     recency list.
//  2. Recency list (*container/list.List) — doubly linked list ordered
//     least-recently-used to most-recently-used. Every successful
//     get/has/set/add/replace/increment/decrement moves its key to the
//     back (MRU end).
//  3. Insertion list (*container/list.List) — doubly linked list recording
//     first-insertion order. Never touched on update; consulted only by
//     status() for the oldest key, never by eviction.
//
// ================================================================================
// CONCURRENCY MODEL
// ================================================================================
//
// Every operation is serialized behind a single sync.Mutex rather than an
// RWMutex: recency maintenance on reads means a "read" (Get) still mutates
// the recency list, so a read-only lock would be unsound here.
package pool

import (
	"container/list"
	"math"
	"strings"
	"sync"

	"github.com/tempuscache/tempuscached/internal/entry"
)

// item is the payload stored in both list.Elements for a live key.
type item struct {
	key string
	e   *entry.Entry
}

// Pool is the cache engine: one per process, exposing the single implicit
// "default" pool.
type Pool struct {
	mu sync.Mutex

	data           map[string]*list.Element // key -> recency element
	recency        *list.List               // LRU order, oldest at Front, newest at Back
	insertion      *list.List               // first-insertion order, oldest at Front
	insertionElems map[string]*list.Element // key -> insertion element

	evictions uint64
}

// New returns an empty Pool ready for use.
func New() *Pool {
	return &Pool{
		data:           make(map[string]*list.Element),
		recency:        list.New(),
		insertion:      list.New(),
		insertionElems: make(map[string]*list.Element),
	}
}

// ValidateKey reports whether key is a legal cache key: non-empty and
// containing no spaces or tabs.
func ValidateKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, " \t")
}

// Add inserts a new entry; it fails with Exists if a live entry is already
// present for key.
func (p *Pool) Add(key string, value any, typ entry.Type, ttlSeconds, now int64) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, found := p.data[key]; found {
		if !p.expireIfDeadLocked(key, elem, now) {
			return Exists
		}
	}

	p.insertLocked(key, value, typ, ttlSeconds, now)
	return OK
}

// Set unconditionally inserts or overwrites key. The insertion index is left
// untouched when the key already existed; the recency index always moves
// the key to MRU.
func (p *Pool) Set(key string, value any, typ entry.Type, ttlSeconds, now int64) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, found := p.data[key]; found {
		it := elem.Value.(*item)
		it.e = entry.New(value, typ, now, ttlSeconds)
		p.recency.MoveToBack(elem)
		return OK
	}

	p.insertLocked(key, value, typ, ttlSeconds, now)
	return OK
}

// Replace overwrites key only if it already holds a live entry.
func (p *Pool) Replace(key string, value any, typ entry.Type, ttlSeconds, now int64) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, found := p.data[key]
	if found && p.expireIfDeadLocked(key, elem, now) {
		found = false
	}
	if !found {
		return Miss
	}

	it := elem.Value.(*item)
	it.e = entry.New(value, typ, now, ttlSeconds)
	p.recency.MoveToBack(elem)
	return OK
}

// Get returns a snapshot of the live entry for key, touching its recency.
// An expired entry is removed synchronously and reported as a miss, so the
// answer stays consistent with ClearStale.
func (p *Pool) Get(key string, now int64) (*entry.Entry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, found := p.data[key]
	if !found {
		return nil, false
	}
	if p.expireIfDeadLocked(key, elem, now) {
		return nil, false
	}

	it := elem.Value.(*item)
	it.e.Touch(now)
	p.recency.MoveToBack(elem)

	snapshot := *it.e
	return &snapshot, true
}

// Has reports liveness of key under the same touch/expire policy as Get.
func (p *Pool) Has(key string, now int64) bool {
	_, ok := p.Get(key, now)
	return ok
}

// Delete removes key from the map and both indices.
func (p *Pool) Delete(key string) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, found := p.data[key]
	if !found {
		return Miss
	}
	p.removeLocked(key, elem)
	return OK
}

// Increment coerces the current value to int64, adds one, and stores the
// result with type tag 'i'. If ttlSeconds > 0 the TTL is reset with
// insertedAt = now.
func (p *Pool) Increment(key string, ttlSeconds, now int64) (int64, Result) {
	return p.addDelta(key, 1, ttlSeconds, now)
}

// Decrement is Increment with delta -1.
func (p *Pool) Decrement(key string, ttlSeconds, now int64) (int64, Result) {
	return p.addDelta(key, -1, ttlSeconds, now)
}

func (p *Pool) addDelta(key string, delta, ttlSeconds, now int64) (int64, Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, found := p.data[key]
	if found && p.expireIfDeadLocked(key, elem, now) {
		found = false
	}
	if !found {
		return 0, Miss
	}

	it := elem.Value.(*item)
	cur := it.e.AsInt64()
	next := cur + delta
	if delta > 0 && next < cur {
		next = math.MaxInt64
	} else if delta < 0 && next > cur {
		next = math.MinInt64
	}

	insertedAt := it.e.InsertedAt
	ttl := it.e.TTLSeconds
	if ttlSeconds > 0 {
		insertedAt = now
		ttl = ttlSeconds
	}
	it.e = &entry.Entry{
		Value:          next,
		Type:           entry.TypeInt,
		InsertedAt:     insertedAt,
		LastAccessedAt: now,
		TTLSeconds:     ttl,
	}
	p.recency.MoveToBack(elem)

	return next, OK
}

// Flush empties the pool and both indices, returning the count removed.
func (p *Pool) Flush() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.data)
	p.data = make(map[string]*list.Element)
	p.recency = list.New()
	p.insertion = list.New()
	p.insertionElems = make(map[string]*list.Element)
	return n
}

// ItemCount returns the number of live keys.
func (p *Pool) ItemCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.data)
}

// Status is the structured snapshot rendered by the dispatcher for the
// `status` command.
type Status struct {
	Items  int
	Oldest string // "" means empty pool; dispatcher renders "-"
	Newest string
	LRU    string
}

// Status reports item count, the insertion-order oldest/newest keys, and the
// current least-recently-used key.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{Items: len(p.data)}
	if front := p.insertion.Front(); front != nil {
		st.Oldest = front.Value.(string)
	}
	if back := p.insertion.Back(); back != nil {
		st.Newest = back.Value.(string)
	}
	if front := p.recency.Front(); front != nil {
		st.LRU = front.Value.(*item).key
	}
	return st
}

// ClearStale removes every entry expired at now, returning the count
// removed. It is idempotent for a fixed now.
func (p *Pool) ClearStale(now int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for elem := p.recency.Front(); elem != nil; {
		next := elem.Next()
		it := elem.Value.(*item)
		if it.e.IsExpired(now) {
			p.removeLocked(it.key, elem)
			removed++
		}
		elem = next
	}
	return removed
}

// ClearLeastRecentlyUsed evicts the oldest floor(n/2) entries by recency —
// the soft-limit response to memory pressure. It never removes the sole
// most-recently-used key when the pool holds at least two items, since
// floor(n/2) < n for all n >= 1 and eviction always proceeds from the
// recency list's front (LRU end).
func (p *Pool) ClearLeastRecentlyUsed() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := len(p.data) / 2
	removed := 0
	for removed < target {
		elem := p.recency.Front()
		if elem == nil {
			break
		}
		it := elem.Value.(*item)
		p.removeLocked(it.key, elem)
		removed++
	}
	p.evictions += uint64(removed)
	return removed
}

// Evictions returns the cumulative count of keys removed by
// ClearLeastRecentlyUsed, for ticker-level logging.
func (p *Pool) Evictions() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evictions
}

// insertLocked creates a brand-new entry and appends it to both indices.
// Caller must hold mu.
func (p *Pool) insertLocked(key string, value any, typ entry.Type, ttlSeconds, now int64) {
	e := entry.New(value, typ, now, ttlSeconds)
	it := &item{key: key, e: e}

	elem := p.recency.PushBack(it)
	p.data[key] = elem

	insElem := p.insertion.PushBack(key)
	p.insertionElems[key] = insElem
}

// removeLocked deletes key from the map and both indices. Caller must hold
// mu and have already verified key's presence via the recency element.
func (p *Pool) removeLocked(key string, recencyElem *list.Element) {
	p.recency.Remove(recencyElem)
	delete(p.data, key)

	if insElem, ok := p.insertionElems[key]; ok {
		p.insertion.Remove(insElem)
		delete(p.insertionElems, key)
	}
}

// expireIfDeadLocked removes key if its entry is expired at now, reporting
// whether it did so. Caller must hold mu.
func (p *Pool) expireIfDeadLocked(key string, elem *list.Element, now int64) bool {
	it := elem.Value.(*item)
	if !it.e.IsExpired(now) {
		return false
	}
	p.removeLocked(key, elem)
	return true
}
