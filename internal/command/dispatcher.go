package command

import (
	"fmt"

	"github.com/tempuscache/tempuscached/internal/pool"
)

// InvalidCommandReply and InvalidArgumentsReply are the exact textual
// tokens written back for the two parse failure modes.
const (
	InvalidCommandReply   = "Invalid command"
	InvalidArgumentsReply = "Invalid arguments"
)

// Dispatcher is pure glue: it drives a pool.Pool from a Parsed request and
// renders the reply line. It holds no state of its own beyond the pool
// reference.
type Dispatcher struct {
	Pool *pool.Pool
}

// NewDispatcher returns a Dispatcher bound to p.
func NewDispatcher(p *pool.Pool) *Dispatcher {
	return &Dispatcher{Pool: p}
}

// Dispatch executes one already-parsed command against the pool and
// returns the reply line (without its trailing newline). now is the
// caller-supplied monotonic clock reading used for TTL/recency bookkeeping.
func (d *Dispatcher) Dispatch(req Parsed, now int64) string {
	switch req.Verb {
	case VerbAdd:
		return string(d.Pool.Add(req.Key, req.Value, req.Type, req.TTL, now))

	case VerbSet:
		return string(d.Pool.Set(req.Key, req.Value, req.Type, req.TTL, now))

	case VerbReplace:
		return string(d.Pool.Replace(req.Key, req.Value, req.Type, req.TTL, now))

	case VerbDelete:
		// Has removes an expired entry, so deleting it reports MISS.
		if !d.Pool.Has(req.Key, now) {
			return string(pool.Miss)
		}
		return string(d.Pool.Delete(req.Key))

	case VerbGet:
		e, ok := d.Pool.Get(req.Key, now)
		if !ok {
			return string(pool.Miss)
		}
		return e.Render()

	case VerbHas:
		if d.Pool.Has(req.Key, now) {
			return "true"
		}
		return "false"

	case VerbIncrement:
		ttl := req.TTL
		if !req.HasTTL {
			ttl = 0
		}
		n, res := d.Pool.Increment(req.Key, ttl, now)
		if res != pool.OK {
			return string(res)
		}
		return fmt.Sprintf("%d", n)

	case VerbDecrement:
		ttl := req.TTL
		if !req.HasTTL {
			ttl = 0
		}
		n, res := d.Pool.Decrement(req.Key, ttl, now)
		if res != pool.OK {
			return string(res)
		}
		return fmt.Sprintf("%d", n)

	case VerbFlush:
		return fmt.Sprintf("%d", d.Pool.Flush())

	case VerbStatus:
		return renderStatus(d.Pool.Status())

	default:
		return InvalidCommandReply
	}
}

// renderStatus formats the status line:
// `items=<n>; oldest=<key_or_dash>; newest=<key_or_dash>; lru=<key_or_dash>`.
func renderStatus(st pool.Status) string {
	return fmt.Sprintf("items=%d; oldest=%s; newest=%s; lru=%s",
		st.Items, dashIfEmpty(st.Oldest), dashIfEmpty(st.Newest), dashIfEmpty(st.LRU))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
