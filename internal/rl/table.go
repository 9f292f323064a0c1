package rl

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueTable stores learned action values grouped by state. It is not safe for
// concurrent writers.
type ValueTable struct {
	values map[uint64]map[uint64]float64
	size   int
}

func NewValueTable() *ValueTable {
	return &ValueTable{values: make(map[uint64]map[uint64]float64)}
}

// Get returns the stored value, 0 for unknown keys.
func (t *ValueTable) Get(k Key) float64 {
	return t.values[k.State][k.Action]
}

// Lookup is Get with a presence flag.
func (t *ValueTable) Lookup(k Key) (float64, bool) {
	v, ok := t.values[k.State][k.Action]
	return v, ok
}

func (t *ValueTable) Set(k Key, v float64) {
	actions, ok := t.values[k.State]
	if !ok {
		actions = make(map[uint64]float64)
		t.values[k.State] = actions
	}
	if _, exists := actions[k.Action]; !exists {
		t.size++
	}
	actions[k.Action] = v
}

// HasState reports whether any entry exists for the state hash.
func (t *ValueTable) HasState(state uint64) bool {
	return len(t.values[state]) > 0
}

// MaxForState returns the largest value stored for the state hash, or 0 when
// the state has no entries.
func (t *ValueTable) MaxForState(state uint64) float64 {
	actions := t.values[state]
	if len(actions) == 0 {
		return 0
	}
	first := true
	var best float64
	for _, v := range actions {
		if first || v > best {
			best = v
			first = false
		}
	}
	return best
}

// Len returns the number of entries.
func (t *ValueTable) Len() int { return t.size }

// Each calls fn for every entry in unspecified order.
func (t *ValueTable) Each(fn func(Key, float64)) {
	for s, actions := range t.values {
		for a, v := range actions {
			fn(Key{State: s, Action: a}, v)
		}
	}
}

// Document flattens the table into "state_action" keys with both hashes in
// decimal.
func (t *ValueTable) Document() map[string]float64 {
	doc := make(map[string]float64, t.size)
	t.Each(func(k Key, v float64) {
		doc[formatKey(k)] = v
	})
	return doc
}

// FromDocument rebuilds a table from a flattened document.
func FromDocument(doc map[string]float64) (*ValueTable, error) {
	t := NewValueTable()
	for raw, v := range doc {
		k, err := parseKey(raw)
		if err != nil {
			return nil, err
		}
		t.Set(k, v)
	}
	return t, nil
}

func formatKey(k Key) string {
	return strconv.FormatUint(k.State, 10) + "_" + strconv.FormatUint(k.Action, 10)
}

func parseKey(raw string) (Key, error) {
	s, a, ok := strings.Cut(raw, "_")
	if !ok {
		return Key{}, fmt.Errorf("invalid value table key %q", raw)
	}
	state, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid state hash in key %q: %w", raw, err)
	}
	action, err := strconv.ParseUint(a, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("invalid action hash in key %q: %w", raw, err)
	}
	return Key{State: state, Action: action}, nil
}
