// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// DefaultMetricLimit is the default bound on a MetricTable (spec §3.4).
const DefaultMetricLimit = 2000

// metricForce controls whether an addition bypasses the table's
// default limit.
type metricForce bool

const (
	Unforced metricForce = false
	Forced   metricForce = true
)

// metricData is the six-tuple carried by a normal (non-apdex) metric
// (spec §3.4).
type metricData struct {
	count      float64
	total      float64
	exclusive  float64
	min        float64
	max        float64
	sumSquares float64

	isApdex     bool
	satisfying  float64
	tolerating  float64
	failing     float64
	apdexThresh float64
}

func (d *metricData) aggregate(total, exclusive time.Duration) {
	t := total.Seconds()
	e := exclusive.Seconds()
	if d.count == 0 {
		d.min = t
		d.max = t
	} else {
		if t < d.min {
			d.min = t
		}
		if t > d.max {
			d.max = t
		}
	}
	d.count++
	d.total += t
	d.exclusive += e
	d.sumSquares += t * t
}

// MetricTable is a bounded map from metric name to aggregate data
// (spec §3.4). Two kinds exist per transaction: scoped (scope is the
// transaction name) and unscoped; the table itself doesn't know which
// it is, callers key that distinction by using two tables.
type MetricTable struct {
	limit int
	// hardCeiling bounds even forced additions once it is reached, to
	// prevent unbounded growth under pathological forced-metric use.
	hardCeiling int
	table       map[string]*metricData
}

// NewMetricTable creates a table with the given soft limit. Forced
// additions may grow it past limit up to a hard ceiling of 10x limit,
// matching the teacher's general practice of capping forced metrics
// well above the ordinary limit rather than leaving it unbounded.
func NewMetricTable(limit int) *MetricTable {
	return &MetricTable{
		limit:       limit,
		hardCeiling: limit * 10,
		table:       make(map[string]*metricData),
	}
}

// Len returns the number of distinct metric names currently stored.
func (mt *MetricTable) Len() int { return len(mt.table) }

func (mt *MetricTable) getOrCreate(name string, force metricForce) *metricData {
	if d, ok := mt.table[name]; ok {
		return d
	}
	if force == Forced {
		if len(mt.table) >= mt.hardCeiling {
			return nil
		}
	} else if len(mt.table) >= mt.limit {
		return nil
	}
	d := &metricData{}
	mt.table[name] = d
	return d
}

// Add records one sample of (total, exclusive) duration for name. If
// the table is at its limit and force is Unforced, the sample is
// silently dropped (spec §7 ResourceExhausted).
func (mt *MetricTable) Add(name string, total, exclusive time.Duration, force metricForce) {
	d := mt.getOrCreate(name, force)
	if d == nil {
		return
	}
	d.aggregate(total, exclusive)
}

// AddApdex records one apdex sample with the given zone counts. The
// "error forces failing" rule is applied by the caller before the
// counts are passed in (Finalize does so through apdexZoneFor, spec
// §4.7).
func (mt *MetricTable) AddApdex(name string, satisfying, tolerating, failing float64, threshold time.Duration, force metricForce) {
	d := mt.getOrCreate(name, force)
	if d == nil {
		return
	}
	d.isApdex = true
	d.satisfying += satisfying
	d.tolerating += tolerating
	d.failing += failing
	d.apdexThresh = threshold.Seconds()
}

// Get returns the stored data for name and whether it exists, for test
// assertions and exclusive-time invariants.
func (mt *MetricTable) Get(name string) (count, total, exclusive, min, max, sumSquares float64, ok bool) {
	d, found := mt.table[name]
	if !found {
		return 0, 0, 0, 0, 0, 0, false
	}
	return d.count, d.total, d.exclusive, d.min, d.max, d.sumSquares, true
}

// ExclusiveSum totals the exclusive field across every stored
// (non-apdex) metric; used to check spec invariant 4.
func (mt *MetricTable) ExclusiveSum() time.Duration {
	var sum float64
	for _, d := range mt.table {
		if d.isApdex {
			continue
		}
		sum += d.exclusive
	}
	return time.Duration(sum * float64(time.Second))
}

// Names returns every metric name currently stored, for iteration in
// tests and in harvest merging.
func (mt *MetricTable) Names() []string {
	names := make([]string, 0, len(mt.table))
	for n := range mt.table {
		names = append(names, n)
	}
	return names
}

// Merge folds other's entries into mt, combining matching names'
// six-tuples additively (min/max taken across both) rather than
// replaying them as single samples, so a harvest accumulating many
// transactions' tables doesn't distort count/variance. Apdex entries
// merge their three zone counts. Used by the application-level harvest
// cycle to roll transaction metric tables up into the reporting table.
func (mt *MetricTable) Merge(other *MetricTable) {
	if other == nil {
		return
	}
	for name, src := range other.table {
		dst := mt.getOrCreate(name, Forced)
		if dst == nil {
			continue
		}
		if src.isApdex {
			dst.isApdex = true
			dst.satisfying += src.satisfying
			dst.tolerating += src.tolerating
			dst.failing += src.failing
			dst.apdexThresh = src.apdexThresh
			continue
		}
		if dst.count == 0 {
			dst.min = src.min
			dst.max = src.max
		} else {
			if src.min < dst.min {
				dst.min = src.min
			}
			if src.max > dst.max {
				dst.max = src.max
			}
		}
		dst.count += src.count
		dst.total += src.total
		dst.exclusive += src.exclusive
		dst.sumSquares += src.sumSquares
	}
}
