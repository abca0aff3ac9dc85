// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

// DefaultMaxSpanEvents bounds the number of span events a transaction
// may emit, mirroring the teacher's own defaultMaxSpanEvents (spec §2
// component L, "a separate bounded heap selects span events").
const DefaultMaxSpanEvents = 2000

// SpanEvent is one emitted span (spec §2 component L / §6.2's sibling
// payload). All spans within a transaction share the transaction's
// priority, so selection among them is purely by duration, exactly
// like trace-segment sampling.
type SpanEvent struct {
	Name        string
	Category    string
	Timestamp   int64 // unix millis
	Duration    float64
	ParentID    string
	GUID        string
	TransactionID string
	TraceID     string
	Sampled     bool
	Priority    Priority

	DatastoreComponent string
	ExternalURI        string

	UserAttributes UserAttributes
}

// BuildSpanEvents walks the tree, selects up to limit spans by the
// same bounded min-heap strategy as trace-segment sampling, and
// renders each surviving segment as a SpanEvent.
func (txn *Txn) BuildSpanEvents(limit int) []SpanEvent {
	if limit <= 0 {
		return nil
	}
	// selectTopSegments keeps the root on top of its limit, so one slot
	// is reserved for the root here.
	kept := selectTopSegments(txn.Tree, limit-1)

	var events []SpanEvent
	txn.Tree.Walk(func(seg *Segment, depth int) {
		if !kept[seg] {
			return
		}
		guid := txn.spanID(seg)
		parentGUID := txn.DTTxnID
		if seg.Parent != nil && seg != txn.Tree.Root {
			parentGUID = txn.spanID(seg.Parent)
		}

		ev := SpanEvent{
			Name:          txn.Tree.Strings.Get(seg.NameIndex),
			Category:      categoryFor(seg.Type),
			Timestamp:     seg.Start.When.UnixNano() / 1e6,
			Duration:      seg.Duration().Seconds(),
			ParentID:      parentGUID,
			GUID:          guid,
			TransactionID: txn.DTTxnID,
			TraceID:       txn.DTTraceID,
			Sampled:       txn.DTSampled,
			Priority:      txn.DTPriority,
			UserAttributes: seg.UserAttributes,
		}
		switch seg.Type {
		case SegmentTypeDatastore:
			ev.DatastoreComponent = seg.Typed.Datastore.Component
		case SegmentTypeExternal:
			ev.ExternalURI = seg.Typed.External.URI
		}
		events = append(events, ev)
	})
	return events
}

func (txn *Txn) spanID(seg *Segment) string {
	if seg.ForcedSpanID != "" {
		return seg.ForcedSpanID
	}
	return fmt32(seg.ID())
}

func fmt32(id int) string {
	const hex = "0123456789abcdef"
	b := make([]byte, 16)
	u := uint64(id)
	for i := 15; i >= 0; i-- {
		b[i] = hex[u&0xf]
		u >>= 4
	}
	return string(b)
}

func categoryFor(t SegmentType) string {
	switch t {
	case SegmentTypeDatastore:
		return "datastore"
	case SegmentTypeExternal:
		return "http"
	default:
		return "generic"
	}
}
