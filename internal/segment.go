// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// SegmentColor is the two-colour traversal marker described in spec
// §4.4.  It has no meaning outside of a single Tree: a segment's
// colour is only ever compared against the colour the tree most
// recently assigned to its own root.
type SegmentColor uint8

const (
	ColorWhite SegmentColor = iota
	ColorGrey
)

func (c SegmentColor) opposite() SegmentColor {
	if c == ColorWhite {
		return ColorGrey
	}
	return ColorWhite
}

// Stamp is a transaction-local monotonic timing stamp (spec §5,
// "Ordering"). Two timestamps with the same wall-clock value can still
// be ordered unambiguously by comparing stamps.
type Stamp uint64

// TxnTime pairs a wall-clock instant with the stamp active when it was
// recorded.
type TxnTime struct {
	When  time.Time
	Stamp Stamp
}

// Segment is one timed node in a transaction's tree (spec §3.2). The
// zero value is not meaningful; use Tree.NewSegment.
type Segment struct {
	tree *Tree

	id int // index into Tree.nodes; stable for the segment's lifetime

	Parent   *Segment
	Children []*Segment

	Color SegmentColor
	Type  SegmentType

	Start TxnTime
	Stop  TxnTime

	NameIndex         int // interned index into Tree.Strings, 0 = unset
	AsyncContextIndex int // interned index, 0 = main context

	UserAttributes UserAttributes
	Typed          TypedAttributes

	// ForcedSpanID, when non-empty, pins the span-event id emitted for
	// this segment instead of deriving one from the segment's position
	// (used by outbound DT to pair a payload with the about-to-end
	// segment, spec §3.2).
	ForcedSpanID string

	// Count is the rollup counter used by external-call collapsing
	// (spec §4.6.2 step 5); 0 means "not a rollup of anything yet".
	Count int
}

// Duration returns Stop.When - Start.When, clamped to zero when Stop
// precedes Start; neither SetTiming nor End rejects such an interval.
func (s *Segment) Duration() time.Duration {
	d := s.Stop.When.Sub(s.Start.When)
	if d < 0 {
		return 0
	}
	return d
}

// ID returns the segment's stable identifier within its tree.
func (s *Segment) ID() int { return s.id }
