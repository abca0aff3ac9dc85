// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

// validator is the subset of *testing.T this file needs, so tests can
// pass t directly without an import cycle.
type validator interface {
	Error(...interface{})
}

// WantMetric is a metric expectation. If Data is nil, any six-tuple is
// accepted and only presence is checked. Forced is not compared:
// MetricTable does not record whether an addition was forced.
type WantMetric struct {
	Name   string
	Forced bool
	Data   []float64 // count, total, exclusive, min, max, sumSquares
}

// ExpectMetrics checks that mt contains exactly the named metrics in
// want, each matching its six-tuple when Data is given.
func ExpectMetrics(v validator, mt *MetricTable, want []WantMetric) {
	names := mt.Names()
	if len(names) != len(want) {
		v.Error("metric count mismatch", len(names), len(want), names)
	}
	seen := make(map[string]bool, len(want))
	for _, w := range want {
		seen[w.Name] = true
		count, total, exclusive, min, max, sumSquares, ok := mt.Get(w.Name)
		if !ok {
			v.Error("missing expected metric", w.Name)
			continue
		}
		if w.Data != nil {
			got := []float64{count, total, exclusive, min, max, sumSquares}
			for i := range w.Data {
				if got[i] != w.Data[i] {
					v.Error("metric field mismatch", w.Name, i, got[i], w.Data[i])
				}
			}
		}
	}
	for _, name := range names {
		if !seen[name] {
			v.Error("unexpected metric present", name)
		}
	}
}

// WantCustomEvent is a custom-event expectation.
type WantCustomEvent struct {
	Type   string
	Params map[string]interface{}
}

// ExpectCustomEvents checks that pool holds exactly the events in want,
// in order.
func ExpectCustomEvents(v validator, pool *CustomEventPool, want []WantCustomEvent) {
	events := pool.Events()
	if len(events) != len(want) {
		v.Error("custom event count mismatch", len(events), len(want))
		return
	}
	for i, w := range want {
		e := events[i]
		if e.EventType != w.Type {
			v.Error("custom event type mismatch", e.EventType, w.Type)
		}
		if len(e.Attributes) != len(w.Params) {
			v.Error("custom event attribute count mismatch", e.Attributes, w.Params)
			continue
		}
		for k, wantVal := range w.Params {
			gotVal, ok := e.Attributes[k]
			if !ok {
				v.Error("custom event missing attribute", k)
			} else if gotVal != wantVal {
				v.Error("custom event attribute value mismatch", k, gotVal, wantVal)
			}
		}
	}
}

// WantSegment is a segment-tree shape expectation used to walk a built
// Tree without asserting every field.
type WantSegment struct {
	Name     string
	Children []WantSegment
}

func expectSegment(v validator, seg *Segment, want WantSegment) {
	if got := seg.tree.Strings.Get(seg.NameIndex); got != want.Name {
		v.Error("segment name mismatch", got, want.Name)
	}
	if len(seg.Children) != len(want.Children) {
		v.Error("segment child count mismatch", seg.Children, want.Children)
		return
	}
	for i, wantChild := range want.Children {
		expectSegment(v, seg.Children[i], wantChild)
	}
}

// ExpectTree checks tree.Root's shape against want.
func ExpectTree(v validator, tree *Tree, want WantSegment) {
	if tree.Root == nil {
		v.Error("tree has no root")
		return
	}
	expectSegment(v, tree.Root, want)
}
