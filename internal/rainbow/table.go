package rainbow

import (
	"context"
	"github.com/pkg/errors"
)

var (
	ErrCorruptTable = errors.New("corrupt rainbow table")
	ErrBrokenChain  = errors.New("chain does not reproduce its endpoint")
)

// Table maps chain endpoints (lowercase hex) to the seeds that produced them.
// A Table is never modified after it has been built or loaded, so it can be
// shared between concurrent crackers.
type Table struct {
	chainLength int
	entries     map[string]string
}

func newTable(chainLength int, sizeHint int) *Table {
	return &Table{
		chainLength: chainLength,
		entries:     make(map[string]string, sizeHint),
	}
}

// FromEntries rebuilds a table from persisted endpoint/seed pairs. A chain
// length of 0 means the length is unknown. Keys must be lowercase digest hex.
func FromEntries(chainLength int, entries map[string]string) (*Table, error) {
	if chainLength < 0 {
		return nil, errors.Wrapf(ErrCorruptTable, "negative chain length %d", chainLength)
	}
	t := newTable(chainLength, len(entries))
	for endpoint, seed := range entries {
		d, err := ParseDigest(endpoint)
		if err != nil {
			return nil, errors.Wrapf(ErrCorruptTable, "endpoint %q: %v", endpoint, err)
		}
		if d.Hex() != endpoint {
			return nil, errors.Wrapf(ErrCorruptTable, "endpoint %q is not lowercase hex", endpoint)
		}
		t.entries[endpoint] = seed
	}
	return t, nil
}

func (t *Table) put(endpoint Digest, seed string) {
	t.entries[endpoint.Hex()] = seed
}

// Lookup returns the seed whose chain ends at the given endpoint.
func (t *Table) Lookup(endpoint Digest) (string, bool) {
	seed, ok := t.entries[endpoint.Hex()]
	return seed, ok
}

func (t *Table) Len() int {
	return len(t.entries)
}

// ChainLength returns the chain length the table was built with, 0 if unknown.
func (t *Table) ChainLength() int {
	return t.chainLength
}

// Entries returns a copy of the endpoint to seed mapping.
func (t *Table) Entries() map[string]string {
	entries := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		entries[k] = v
	}
	return entries
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified.
func (t *Table) Range(fn func(endpoint, seed string) bool) {
	for k, v := range t.entries {
		if !fn(k, v) {
			return
		}
	}
}

func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.chainLength != other.chainLength || len(t.entries) != len(other.entries) {
		return false
	}
	for k, v := range t.entries {
		if ov, ok := other.entries[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Verify recomputes every chain with the given length and checks that it ends
// at its key.
func (t *Table) Verify(ctx context.Context, chainLength int) error {
	for endpoint, seed := range t.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if got := Endpoint(seed, chainLength).Hex(); got != endpoint {
			return errors.Wrapf(ErrBrokenChain, "seed %q: stored %s, computed %s", seed, endpoint, got)
		}
	}
	return nil
}
