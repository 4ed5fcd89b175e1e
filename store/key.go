package store

import (
	"sort"
	"strings"
)

// Key addresses one cacheable query result: an entity family plus the
// parameters that scope it (page, search query, entity ID).
//
// Two keys are equal iff their family and params are equal by value;
// param order never matters. ID returns the canonical form used for
// map addressing and equality.
type Key struct {
	Family string
	Params map[string]string
}

// NewKey builds a key for family with optional params.
func NewKey(family string, params map[string]string) Key {
	return Key{Family: family, Params: params}
}

// ID returns the canonical string identity of the key.
// Format: <family> or <family>?k1=v1&k2=v2 with params sorted by name.
func (k Key) ID() string {
	if len(k.Params) == 0 {
		return k.Family
	}

	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(k.Family)
	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(k.Params[name])
	}
	return b.String()
}

// Equal reports whether two keys address the same cached result.
func (k Key) Equal(other Key) bool {
	return k.ID() == other.ID()
}
