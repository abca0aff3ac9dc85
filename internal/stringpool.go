// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

// StringPool interns strings in insertion order.  Index 0 is reserved
// and never assigned to a string: callers use it as the "unset" token.
// Lookups and insertions are O(1) amortized.
type StringPool struct {
	indexes map[string]int
	strings []string
}

// NewStringPool creates an empty pool.
func NewStringPool() *StringPool {
	return &StringPool{
		indexes: make(map[string]int),
	}
}

// Add interns s and returns its 1-based index.  Adding the same string
// twice returns the same index (interning is idempotent).
func (p *StringPool) Add(s string) int {
	if s == "" {
		return 0
	}
	if idx, ok := p.indexes[s]; ok {
		return idx
	}
	p.strings = append(p.strings, s)
	idx := len(p.strings)
	p.indexes[s] = idx
	return idx
}

// Get returns the string at the given 1-based index, or "" if idx is 0
// or out of range.
func (p *StringPool) Get(idx int) string {
	if idx <= 0 || idx > len(p.strings) {
		return ""
	}
	return p.strings[idx-1]
}

// Len returns the number of strings interned so far.
func (p *StringPool) Len() int {
	return len(p.strings)
}

// Strings returns the pool contents in assignment order, suitable for
// direct JSON array emission (agent index i serialises at position i-1).
func (p *StringPool) Strings() []string {
	out := make([]string, len(p.strings))
	copy(out, p.strings)
	return out
}
