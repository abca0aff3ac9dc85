// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"net/http"
	"time"

	"github.com/tracehouse/apm-agent-core/internal"
)

// Transaction represents one recorded unit of work. All methods are
// nil-safe (spec §3.6's lifecycle, grounded on the teacher's
// *Transaction API).
type Transaction struct {
	app *Application
	txn *internal.Txn
}

// End finalises the transaction: runs the naming pipeline, synthesises
// the finalisation metric cascade, and stops recording (spec §4.1).
// It is idempotent, and merges the transaction's data into the owning
// Application's harvest exactly once.
func (txn *Transaction) End() {
	if txn == nil || txn.txn == nil {
		return
	}
	wasRecording := txn.txn.Recording
	txn.txn.End(time.Now())
	if wasRecording && !txn.txn.Ignore && txn.app != nil && txn.app.harvest != nil {
		txn.mergeIntoHarvest(txn.app.harvest)
	}
}

// mergeIntoHarvest folds this transaction's metrics, custom events,
// span events, and trace payload into h. The method is unexported, so
// Transaction does not itself satisfy the Harvestable interface.
func (txn *Transaction) mergeIntoHarvest(h *Harvest) {
	h.mergeMetrics(txn.txn.ScopedMetrics)
	h.mergeMetrics(txn.txn.UnscopedMetrics)
	h.mergeCustomEvents(txn.txn.CustomEvents.Events())
	h.mergeSpanEvents(txn.txn.BuildSpanEvents(internal.DefaultMaxSpanEvents))
	if payload, err := txn.txn.BuildTracePayload(internal.DefaultMaxTraceSegments); err == nil {
		h.mergeTracePayload(payload)
	}
}

// Ignore discards the transaction: no further data is emitted for it
// (spec §5, "Cancellation / timeouts").
func (txn *Transaction) Ignore() {
	if txn == nil || txn.txn == nil {
		return
	}
	txn.txn.SetIgnore()
}

// SetName overwrites the transaction's working name, subject to the
// path-type priority ordering of spec §3.1.
func (txn *Transaction) SetName(name string) bool {
	if txn == nil || txn.txn == nil {
		return false
	}
	return txn.txn.SetName(name, name, internal.PathCustom, true)
}

// SetWebRequestHTTP marks this transaction as a web transaction and
// offers the request's URL path as a Uri-type name. That name does not
// replace one of a higher path type, such as the Custom name that
// StartTransaction sets. Queue-start headers (X-Queue-Start /
// X-Request-Start) are not read.
func (txn *Transaction) SetWebRequestHTTP(r *http.Request) {
	if txn == nil || txn.txn == nil || r == nil {
		return
	}
	txn.txn.Background = false
	txn.txn.SetName(r.URL.Path, r.URL.Path, internal.PathUri, false)
}

// NoticeError records an application error, retaining it only if its
// priority exceeds any error already recorded (spec §3.6). If err
// implements ErrorClass()/ErrorAttributes() (as agent.Error does),
// those are used instead of the defaults.
func (txn *Transaction) NoticeError(err error) {
	if txn == nil || txn.txn == nil || err == nil {
		return
	}
	txn.txn.NoticeError(err.Error(), errorClassOf(err), txn.txn.DTPriority, errorAttributesOf(err), time.Now())
}

// AddAttribute attaches a user attribute to the transaction's trace
// and event destinations.
func (txn *Transaction) AddAttribute(key string, value interface{}) {
	if txn == nil || txn.txn == nil {
		return
	}
	txn.txn.AddAttribute(key, value)
}

// StartSegmentNow returns a SegmentStartTime marking the current
// instant, for use as the StartTime of a DatastoreSegment or
// ExternalSegment (spec §4.2).
func (txn *Transaction) StartSegmentNow() SegmentStartTime {
	if txn == nil || txn.txn == nil {
		return SegmentStartTime{}
	}
	return SegmentStartTime{txn: txn, when: time.Now()}
}

// StartSegment starts a basic (custom) segment named name.
func (txn *Transaction) StartSegment(name string) *Segment {
	if txn == nil || txn.txn == nil {
		return nil
	}
	seg := txn.txn.StartSegment(time.Now(), nil, "")
	txn.txn.Tree.SetName(seg, name)
	return &Segment{txn: txn, seg: seg}
}

// RecordCustomEvent adds a custom analytic event, gated on the
// CustomInsightsEvents config (spec §6.1).
func (txn *Transaction) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if txn == nil || txn.txn == nil {
		return
	}
	txn.txn.RecordCustomEvent(eventType, internal.UserAttributes(params), time.Now())
}

// GetTraceMetadata returns the identifiers needed to correlate logs
// and external systems with this transaction's trace.
func (txn *Transaction) GetTraceMetadata() (traceID, spanID string) {
	if txn == nil || txn.txn == nil {
		return "", ""
	}
	return txn.txn.DTTraceID, txn.txn.DTTxnID
}

// IsSampled reports whether this transaction's trace was sampled for
// distributed tracing.
func (txn *Transaction) IsSampled() bool {
	if txn == nil || txn.txn == nil {
		return false
	}
	return txn.txn.DTSampled
}

// InsertDistributedTraceHeaders adds the outbound NR and W3C trace
// headers to hdrs (spec §6.3).
func (txn *Transaction) InsertDistributedTraceHeaders(hdrs http.Header) {
	if txn == nil || txn.txn == nil || hdrs == nil {
		return
	}
	p := txn.txn.InsertDistributedTraceHeaders(time.Now())
	hdrs.Set(internal.DistributedTraceNewRelicHeader, p.NRHTTPSafe())
	hdrs.Set(internal.DistributedTraceW3CTraceParentHeader, p.W3CTraceParent())
	hdrs.Set(internal.DistributedTraceW3CTraceStateHeader, p.W3CTraceState())
}

// AcceptDistributedTraceHeaders parses an inbound trace context from
// hdrs and joins this transaction to the caller's trace (spec §6.3).
func (txn *Transaction) AcceptDistributedTraceHeaders(hdrs http.Header, transportDuration time.Duration) error {
	if txn == nil || txn.txn == nil || hdrs == nil {
		return nil
	}
	trustedKey := ""
	if txn.txn.Reply != nil {
		trustedKey = txn.txn.Reply.TrustedAccountKey
	}
	payload, err := internal.AcceptPayload(hdrs, trustedKey)
	if err != nil {
		return err
	}
	txn.txn.AcceptDistributedTraceHeaders(payload, transportDuration)
	return nil
}

// Application returns the Application that started this transaction.
func (txn *Transaction) Application() *Application {
	if txn == nil {
		return nil
	}
	return txn.app
}
