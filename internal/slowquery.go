// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"hash/fnv"
	"time"
)

// DefaultSlowQueryLimit is the default bound on a SlowQueryStore (spec
// §3.5, §4.6.4).
const DefaultSlowQueryLimit = 10

// SlowQueryFingerprint identifies a distinct slow query (spec §4.6.4):
// FNV-1a 32-bit over the obfuscated SQL text, a NUL separator, and the
// metric name the query rolled up under.
type SlowQueryFingerprint uint32

// Fingerprint computes the fingerprint for one slow query observation.
func Fingerprint(obfuscatedSQL, metricName string) SlowQueryFingerprint {
	h := fnv.New32a()
	h.Write([]byte(obfuscatedSQL))
	h.Write([]byte{0})
	h.Write([]byte(metricName))
	return SlowQueryFingerprint(h.Sum32())
}

// slowQuery is one fingerprint's aggregated sample data.
type slowQuery struct {
	MetricName     string
	SQL            string
	ObfuscatedSQL  string
	InputQueryJSON string
	BacktraceJSON  string
	Params         UserAttributes

	Count int
	Min   time.Duration
	Max   time.Duration
	Total time.Duration

	// TxnGUID / firstSeen are recorded from the first observation only,
	// matching the original agent's "keep the sample, not every
	// occurrence" behavior.
	TxnGUID   string
	FirstSeen time.Time
}

// SlowQueryStore is a fixed-capacity, fingerprint-keyed collection of
// slow database calls (spec §3.5). Once full, new distinct fingerprints
// are dropped; an existing fingerprint's aggregate is always updated.
// A zero-capacity store is permanently disabled (spec "Unresolved in
// source" note): every Add is then a silent no-op.
type SlowQueryStore struct {
	capacity int
	byFP     map[SlowQueryFingerprint]*slowQuery
}

// NewSlowQueryStore creates a store with the given capacity. Capacity 0
// disables collection entirely.
func NewSlowQueryStore(capacity int) *SlowQueryStore {
	return &SlowQueryStore{
		capacity: capacity,
		byFP:     make(map[SlowQueryFingerprint]*slowQuery),
	}
}

// Len returns the number of distinct fingerprints currently stored.
func (s *SlowQueryStore) Len() int { return len(s.byFP) }

// Disabled reports whether this store was constructed with capacity 0.
func (s *SlowQueryStore) Disabled() bool { return s.capacity == 0 }

// Add records one slow-query observation. It returns false when the
// observation was dropped because the store is disabled or full with a
// previously-unseen fingerprint.
func (s *SlowQueryStore) Add(fp SlowQueryFingerprint, metricName, sql, obfuscatedSQL, txnGUID string, duration time.Duration, now time.Time) bool {
	if s.capacity == 0 {
		return false
	}
	if q, ok := s.byFP[fp]; ok {
		q.Count++
		q.Total += duration
		if duration < q.Min {
			q.Min = duration
		}
		if duration > q.Max {
			q.Max = duration
		}
		return true
	}
	if len(s.byFP) >= s.capacity {
		return false
	}
	s.byFP[fp] = &slowQuery{
		MetricName:    metricName,
		SQL:           sql,
		ObfuscatedSQL: obfuscatedSQL,
		TxnGUID:       txnGUID,
		FirstSeen:     now,
		Count:         1,
		Min:           duration,
		Max:           duration,
		Total:         duration,
	}
	return true
}

// Get returns the stored sample for fp, if any, for test assertions.
func (s *SlowQueryStore) Get(fp SlowQueryFingerprint) (metricName string, count int, min, max, total time.Duration, ok bool) {
	q, found := s.byFP[fp]
	if !found {
		return "", 0, 0, 0, 0, false
	}
	return q.MetricName, q.Count, q.Min, q.Max, q.Total, true
}
