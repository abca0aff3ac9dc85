// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"time"

	"github.com/tracehouse/apm-agent-core/internal"
)

// SegmentStartTime marks the instant a segment began, returned by
// Transaction.StartSegmentNow so callers can defer the End call (spec
// §4.2's begin/end pairing).
type SegmentStartTime struct {
	txn  *Transaction
	when time.Time
}

// Segment is a basic, named unit of work inside a transaction's tree.
type Segment struct {
	txn  *Transaction
	seg  *internal.Segment
	name string
}

// End stops the segment's timer; the segment joined the transaction's
// tree when it was started. Nil-safe.
func (s *Segment) End() {
	if s == nil || s.txn == nil || s.txn.txn == nil || s.seg == nil {
		return
	}
	s.txn.txn.EndSegment(s.seg, time.Now())
}

// DatastoreSegment times a call to a datastore (spec §4.6.1).
type DatastoreSegment struct {
	StartTime SegmentStartTime

	Product            DatastoreProduct
	Collection         string
	Operation          string
	ParameterizedQuery string
	Host               string
	PortPathOrID       string
	DatabaseName       string

	// ModifyTableName lets the caller rewrite an extracted table name
	// before it's used as the Datastore metric's segment.
	ModifyTableName func(string) string
}

// End resolves the datastore call against the transaction it was
// started from, emitting the Datastore metric cascade (spec §4.6.1).
// Nil-safe.
func (s *DatastoreSegment) End() {
	if s == nil || s.StartTime.txn == nil || s.StartTime.txn.txn == nil {
		return
	}
	txn := s.StartTime.txn.txn
	start := s.StartTime.when

	var instance *internal.DatastoreInstance
	if s.Host != "" || s.PortPathOrID != "" || s.DatabaseName != "" {
		instance = &internal.DatastoreInstance{
			Host:         s.Host,
			PortPathOrID: s.PortPathOrID,
			DatabaseName: s.DatabaseName,
		}
	}

	txn.EndDatastore(internal.DatastoreCall{
		Start:           start,
		Stop:            time.Now(),
		Vendor:          s.Product.toInternal(),
		VendorOther:     string(s.Product),
		Collection:      s.Collection,
		Operation:       s.Operation,
		SQL:             s.ParameterizedQuery,
		Instance:        instance,
		ModifyTableName: s.ModifyTableName,
	})
}

// ExternalSegment times an outbound call to another service (spec
// §4.6.2).
type ExternalSegment struct {
	StartTime SegmentStartTime

	URL       string
	Procedure string
	Library   string

	// CAT carries an already-decoded cross-application-tracing response
	// header; this type never parses the wire format itself.
	CAT *internal.CATResponse
}

// End resolves the external call, collapsing into an adjacent
// identically-named call when no intervening segment was saved (spec
// §4.6.2's rollup rule). Nil-safe.
func (s *ExternalSegment) End() {
	if s == nil || s.StartTime.txn == nil || s.StartTime.txn.txn == nil {
		return
	}
	txn := s.StartTime.txn.txn
	start := s.StartTime.when

	txn.EndExternal(internal.ExternalCall{
		Start:     start,
		Stop:      time.Now(),
		URL:       s.URL,
		DoRollup:  true,
		CAT:       s.CAT,
		Library:   s.Library,
		Procedure: s.Procedure,
	})
}
