package command

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tempuscache/tempuscached/internal/entry"
)

// ErrUnknownVerb is returned when the command token does not match any
// recognized verb — surfaced on the wire as "Invalid command".
var ErrUnknownVerb = errors.New("unknown command")

// ErrBadArguments is returned when a recognized verb's arguments do not
// match its grammar — surfaced on the wire as "Invalid arguments".
var ErrBadArguments = errors.New("invalid arguments")

var verbs = map[string]Verb{
	"add":       VerbAdd,
	"set":       VerbSet,
	"replace":   VerbReplace,
	"delete":    VerbDelete,
	"get":       VerbGet,
	"has":       VerbHas,
	"increment": VerbIncrement,
	"decrement": VerbDecrement,
	"flush":     VerbFlush,
	"status":    VerbStatus,
	"close":     VerbClose,
}

// Parse classifies a single request line (already stripped of its trailing
// newline) into a Verb and validated arguments. Command matching is
// case-insensitive; key matching is not.
func Parse(line string) (Parsed, error) {
	line = strings.TrimRight(line, "\r")
	line = strings.TrimSpace(line)

	verbToken, rest, _ := strings.Cut(line, " ")
	verb, ok := verbs[strings.ToLower(verbToken)]
	if !ok {
		return Parsed{}, ErrUnknownVerb
	}
	rest = strings.TrimSpace(rest)

	switch verb {
	case VerbFlush, VerbStatus, VerbClose:
		if rest != "" {
			return Parsed{}, ErrBadArguments
		}
		return Parsed{Verb: verb}, nil

	case VerbGet, VerbHas, VerbDelete:
		key, remainder, _ := strings.Cut(rest, " ")
		if key == "" || strings.TrimSpace(remainder) != "" {
			return Parsed{}, ErrBadArguments
		}
		return Parsed{Verb: verb, Key: key}, nil

	case VerbIncrement, VerbDecrement:
		return parseKeyAndOptionalTTL(verb, rest)

	case VerbAdd, VerbSet, VerbReplace:
		return parseKeyValueTTL(verb, rest)
	}

	return Parsed{}, ErrUnknownVerb
}

// parseKeyAndOptionalTTL handles `key (SP ttl)?` grammar for
// increment/decrement.
func parseKeyAndOptionalTTL(verb Verb, rest string) (Parsed, error) {
	if rest == "" {
		return Parsed{}, ErrBadArguments
	}

	key, remainder, hasMore := strings.Cut(rest, " ")
	if key == "" {
		return Parsed{}, ErrBadArguments
	}
	if !hasMore {
		return Parsed{Verb: verb, Key: key}, nil
	}

	remainder = strings.TrimSpace(remainder)
	if remainder == "" {
		return Parsed{Verb: verb, Key: key}, nil
	}

	ttl, err := parseTTL(remainder)
	if err != nil {
		return Parsed{}, ErrBadArguments
	}
	return Parsed{Verb: verb, Key: key, TTL: ttl, HasTTL: true}, nil
}

// parseKeyValueTTL handles `key SP typed-value (SP ttl)?` for
// add/set/replace. Because the value itself may legally contain spaces, the
// trailing token is only consumed as a ttl when it is entirely digits;
// otherwise the whole remainder is the typed value.
func parseKeyValueTTL(verb Verb, rest string) (Parsed, error) {
	if rest == "" {
		return Parsed{}, ErrBadArguments
	}

	key, remainder, hasMore := strings.Cut(rest, " ")
	if key == "" || !hasMore || remainder == "" {
		return Parsed{}, ErrBadArguments
	}

	typedValue := remainder
	var ttl int64
	var hasTTL bool

	if idx := strings.LastIndexByte(remainder, ' '); idx >= 0 {
		candidate := remainder[idx+1:]
		if candidate != "" && isAllDigits(candidate) {
			if parsedTTL, err := parseTTL(candidate); err == nil {
				typedValue = remainder[:idx]
				ttl = parsedTTL
				hasTTL = true
			}
		}
	}

	if typedValue == "" {
		return Parsed{}, ErrBadArguments
	}

	value, typ, err := parseTypedValue(typedValue)
	if err != nil {
		return Parsed{}, err
	}

	return Parsed{Verb: verb, Key: key, Value: value, Type: typ, TTL: ttl, HasTTL: hasTTL}, nil
}

// parseTypedValue splits the optional "s|"/"b|"/"i|" prefix from a value and
// coerces the raw text into its Go representation. The prefix defaults to
// "s" when absent.
func parseTypedValue(raw string) (any, entry.Type, error) {
	typ := entry.TypeString
	text := raw

	if len(raw) >= 2 && raw[1] == '|' {
		switch raw[0] {
		case 's', 'S':
			typ = entry.TypeString
			text = raw[2:]
		case 'b', 'B':
			typ = entry.TypeBool
			text = raw[2:]
		case 'i', 'I':
			typ = entry.TypeInt
			text = raw[2:]
		}
	}

	switch typ {
	case entry.TypeBool:
		b, err := parseBool(text)
		if err != nil {
			return nil, 0, ErrBadArguments
		}
		return b, typ, nil
	case entry.TypeInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, 0, ErrBadArguments
		}
		return n, typ, nil
	default:
		return text, typ, nil
	}
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, ErrBadArguments
	}
}

func parseTTL(text string) (int64, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return 0, ErrBadArguments
	}
	return n, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
