package lookup

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"flowlog-tagger/internal/protocol"
)

// ErrInvalidPort is returned by ParsePort for anything that is not a
// non-negative base-10 integer.
var ErrInvalidPort = errors.New("invalid port")

// Key identifies a destination port and canonical protocol pair.
type Key struct {
	Port     uint32
	Protocol protocol.Protocol
}

func (k Key) String() string {
	return fmt.Sprintf("%d,%s", k.Port, k.Protocol)
}

// Less orders keys by port, then protocol name.
func (k Key) Less(o Key) bool {
	if k.Port != o.Port {
		return k.Port < o.Port
	}
	return k.Protocol < o.Protocol
}

// ParsePort parses a lower-cased, trimmed port token.
//
// There is no 0-65535 range check; any value up to 2^31-1 is accepted.
func ParsePort(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, ErrInvalidPort
	}
	return uint32(n), nil
}

// ParseKey validates and normalizes a raw port and protocol pair. Both
// tokens must already be lower-cased and trimmed.
func ParseKey(port, proto string) (Key, error) {
	p, err := ParsePort(port)
	if err != nil {
		return Key{}, err
	}
	pr, err := protocol.Normalize(proto)
	if err != nil {
		return Key{}, err
	}
	return Key{Port: p, Protocol: pr}, nil
}

// Table maps a Key to its set of lower-cased tags.
//
// A Table is filled once by Build and must not be mutated afterwards.
type Table struct {
	tags map[Key]map[string]struct{}
}

func NewTable() *Table {
	return &Table{tags: map[Key]map[string]struct{}{}}
}

// Add inserts tag under k. Duplicate tags for a key collapse into one.
func (t *Table) Add(k Key, tag string) {
	set, ok := t.tags[k]
	if !ok {
		set = map[string]struct{}{}
		t.tags[k] = set
	}
	set[tag] = struct{}{}
}

// Tags returns the tags for k in sorted order, and whether k is present.
func (t *Table) Tags(k Key) ([]string, bool) {
	set, ok := t.tags[k]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out, true
}

// Each calls fn for every tag of k without allocating. It reports whether
// k is present.
func (t *Table) Each(k Key, fn func(tag string)) bool {
	set, ok := t.tags[k]
	if !ok {
		return false
	}
	for tag := range set {
		fn(tag)
	}
	return true
}

// Len returns the number of distinct keys.
func (t *Table) Len() int { return len(t.tags) }

// Keys returns all keys ordered with Key.Less.
func (t *Table) Keys() []Key {
	out := make([]Key, 0, len(t.tags))
	for k := range t.tags {
		out = append(out, k)
	}
	slices.SortFunc(out, compareKeys)
	return out
}

func compareKeys(a, b Key) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// SortKeys orders keys in place with Key.Less.
func SortKeys(keys []Key) { slices.SortFunc(keys, compareKeys) }
