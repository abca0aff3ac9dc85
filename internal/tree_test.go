// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"testing"
	"time"
)

func TestTreeImplicitParenting(t *testing.T) {
	now := time.Now()
	tree := NewTree(now)

	child := tree.Start(now, nil, "")
	tree.SetName(child, "child")
	grandchild := tree.Start(now, nil, "")
	tree.SetName(grandchild, "grandchild")
	tree.End(grandchild, now)
	tree.End(child, now)

	ExpectTree(t, tree, WantSegment{
		Name: "",
		Children: []WantSegment{
			{Name: "child", Children: []WantSegment{
				{Name: "grandchild"},
			}},
		},
	})
}

func TestTreeExplicitParentLeavesStackUntouched(t *testing.T) {
	now := time.Now()
	tree := NewTree(now)

	a := tree.Start(now, nil, "")
	tree.SetName(a, "a")
	// b is explicitly parented under the root, not under a, even though
	// a is current.
	b := tree.Start(now, tree.Root, "")
	tree.SetName(b, "b")

	if tree.Current() != a {
		t.Error("explicit parenting must not push onto the current-segment stack")
	}
	if b.Parent != tree.Root {
		t.Error("b should be parented to root", b.Parent)
	}
}

func TestTreeWalkToleratesCycles(t *testing.T) {
	now := time.Now()
	tree := NewTree(now)

	a := tree.Start(now, nil, "")
	tree.SetName(a, "a")
	tree.End(a, now)
	b := tree.Start(now, nil, "")
	tree.SetName(b, "b")
	tree.End(b, now)

	// Induce a cycle: b's parent becomes a, and a is re-parented onto b.
	tree.SetParent(a, b)
	tree.SetParent(b, a)

	visited := 0
	tree.Walk(func(seg *Segment, depth int) { visited++ })
	if visited == 0 {
		t.Error("walk should still visit the root")
	}

	// A second walk over the same (still cyclic) tree must not hang and
	// must visit the same node count, proving the colour flips back.
	visited2 := 0
	tree.Walk(func(seg *Segment, depth int) { visited2++ })
	if visited2 != visited {
		t.Error("repeated walks over an unchanged tree should visit the same nodes", visited, visited2)
	}
}

func TestTreeSetParentRejectsCrossTree(t *testing.T) {
	now := time.Now()
	treeA := NewTree(now)
	treeB := NewTree(now)

	segA := treeA.Start(now, nil, "")
	if ok := treeA.SetParent(segA, treeB.Root); ok {
		t.Error("re-parenting across trees must be rejected")
	}
}

func TestTreeEndOnlyPopsIfStillCurrent(t *testing.T) {
	now := time.Now()
	tree := NewTree(now)

	a := tree.Start(now, nil, "")
	b := tree.Start(now, nil, "")

	// Ending a while b is current should not pop b off the stack.
	tree.End(a, now)
	if tree.Current() != b {
		t.Error("ending a non-top segment must not disturb the stack", tree.Current())
	}
}
