// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"container/heap"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultMaxTraceSegments bounds how many segments a single trace
// payload may carry (spec §2 component L, "a bounded min-max heap
// selects the top-N segments by duration").
const DefaultMaxTraceSegments = 2000

// segmentHeap is a min-heap over *Segment ordered by Duration, so the
// single lowest-duration member is always the first one evicted when
// a higher-duration candidate arrives and the heap is already full.
type segmentHeap []*Segment

func (h segmentHeap) Len() int           { return len(h) }
func (h segmentHeap) Less(i, j int) bool { return h[i].Duration() < h[j].Duration() }
func (h segmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *segmentHeap) Push(x any)        { *h = append(*h, x.(*Segment)) }
func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// selectTopSegments walks the whole tree and keeps the limit
// highest-duration segments, via a bounded min-heap: candidates below
// the current minimum are dropped without ever growing the heap past
// limit (spec §2 component L). The root is always kept regardless of
// its place in the ranking, since it anchors the payload's tree shape.
func selectTopSegments(tree *Tree, limit int) map[*Segment]bool {
	h := &segmentHeap{}
	heap.Init(h)

	tree.Walk(func(seg *Segment, depth int) {
		if seg == tree.Root {
			return
		}
		if h.Len() < limit {
			heap.Push(h, seg)
			return
		}
		if len(*h) > 0 && (*h)[0].Duration() < seg.Duration() {
			heap.Pop(h)
			heap.Push(h, seg)
		}
	})

	kept := make(map[*Segment]bool, h.Len()+1)
	kept[tree.Root] = true
	for _, seg := range *h {
		kept[seg] = true
	}
	return kept
}

// traceNode is the intermediate, JSON-ready representation of one
// segment (spec §6.2).
type traceNode struct {
	StartMs  float64
	StopMs   float64
	NameIdx  int
	Async    int
	Params   UserAttributes
	Children []*traceNode
}

// MarshalJSON renders [start_ms, stop_ms, "`idx", params, [children]]
// exactly as spec §6.2 requires, with "async_context" left uninterned.
// The internal string tables index from 1; the wire format indexes
// from 0, so both NameIdx and Async are rendered one lower here.
func (n *traceNode) MarshalJSON() ([]byte, error) {
	children := n.Children
	if children == nil {
		children = []*traceNode{}
	}
	return json.Marshal([]any{
		n.StartMs,
		n.StopMs,
		fmt.Sprintf("`%d", n.NameIdx-1),
		n.paramsPayload(),
		children,
	})
}

func (n *traceNode) paramsPayload() map[string]any {
	if n.Async == 0 {
		out := make(map[string]any, len(n.Params))
		for k, v := range n.Params {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(n.Params)+1)
	out["async_context"] = fmt.Sprintf("`%d", n.Async-1)
	for k, v := range n.Params {
		out[k] = v
	}
	return out
}

// BuildTraceTree assembles the sampled trace payload's inner node
// tree (spec §6.2): offsets are milliseconds from the root's start,
// clamped non-negative and non-decreasing; nodes outside the top-N
// selection are pruned, but their still-selected descendants are
// re-parented onto the nearest surviving ancestor so the tree stays
// connected.
func (txn *Txn) BuildTraceTree(limit int) *traceNode {
	root := txn.Tree.Root
	kept := selectTopSegments(txn.Tree, limit)
	rootStart := root.Start.When

	var childrenOf func(seg *Segment) []*traceNode
	var build func(seg *Segment) *traceNode

	build = func(seg *Segment) *traceNode {
		startMs := msOffset(rootStart, seg.Start.When)
		stopMs := msOffset(rootStart, seg.Stop.When)
		if stopMs < startMs {
			stopMs = startMs
		}
		return &traceNode{
			StartMs:  startMs,
			StopMs:   stopMs,
			NameIdx:  seg.NameIndex,
			Async:    seg.AsyncContextIndex,
			Params:   seg.UserAttributes,
			Children: childrenOf(seg),
		}
	}

	// childrenOf recurses through unkept descendants so pruning a
	// middle node doesn't orphan its surviving grandchildren: they are
	// re-parented directly onto the nearest kept ancestor.
	childrenOf = func(seg *Segment) []*traceNode {
		var out []*traceNode
		for _, child := range seg.Children {
			if kept[child] {
				out = append(out, build(child))
			} else {
				out = append(out, childrenOf(child)...)
			}
		}
		return out
	}

	return build(root)
}

// msOffset returns t-base in milliseconds, clamped to >= 0 (spec
// §6.2: "clamped to >= 0").
func msOffset(base, t time.Time) float64 {
	d := t.Sub(base)
	if d < 0 {
		d = 0
	}
	return float64(d) / float64(time.Millisecond)
}
