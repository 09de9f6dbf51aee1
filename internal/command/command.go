// Package command implements the line-framed command protocol: it
// classifies a request line into a Verb plus validated arguments, and the
// Dispatcher that drives a pool.Pool from the parsed result and formats the
// reply line.
package command

import "github.com/tempuscache/tempuscached/internal/entry"

// Verb identifies which pool operation a request line named.
type Verb int

const (
	// VerbUnknown marks a request line whose command token did not match
	// any recognized verb.
	VerbUnknown Verb = iota
	VerbAdd
	VerbSet
	VerbReplace
	VerbDelete
	VerbGet
	VerbHas
	VerbIncrement
	VerbDecrement
	VerbFlush
	VerbStatus
	VerbClose
)

// Parsed is a fully validated request: the verb plus whatever arguments its
// grammar calls for.
type Parsed struct {
	Verb   Verb
	Key    string
	Value  any
	Type   entry.Type
	TTL    int64
	HasTTL bool
}
