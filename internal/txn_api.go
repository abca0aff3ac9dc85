// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// AddAttribute attaches a user attribute destined for the trace and
// event buckets, gated by RequestParamsEnabled/CustomParametersEnabled
// at the caller's discretion (spec §3.1 attributes buckets).
func (txn *Txn) AddAttribute(key string, value any) {
	if !txn.Recording {
		return
	}
	txn.TraceAttributes[key] = value
	txn.EventAttributes[key] = value
}

// NoticeError records an error, replacing any previously recorded
// error only if strictly higher priority (spec §3.6). extra is merged
// over the transaction's ambient error attributes, letting a caller's
// per-error attributes take precedence.
func (txn *Txn) NoticeError(message, klass string, priority Priority, extra UserAttributes, now time.Time) {
	if !txn.Recording || !txn.Options.ErrorCollectorEnabled {
		return
	}
	if txn.Error != nil && priority <= txn.Error.Priority {
		return
	}
	attrs := make(UserAttributes, len(txn.ErrorAttributes)+len(extra))
	for k, v := range txn.ErrorAttributes {
		attrs[k] = v
	}
	for k, v := range extra {
		attrs[k] = v
	}
	txn.Error = &RecordedError{
		Message:    message,
		Klass:      klass,
		Priority:   priority,
		Attributes: attrs,
		When:       now,
	}
}

// RecordCustomEvent records a custom analytic event, gated on
// CustomEventsEnabled (spec §6.1).
func (txn *Txn) RecordCustomEvent(eventType string, attrs UserAttributes, now time.Time) bool {
	if !txn.Recording || !txn.Options.CustomEventsEnabled {
		return false
	}
	return txn.CustomEvents.Add(eventType, now, attrs)
}

// InsertDistributedTraceHeaders builds the outbound DT payload
// (NR + W3C headers) for this transaction (spec §6.3/§4.7).
func (txn *Txn) InsertDistributedTraceHeaders(now time.Time) Payload {
	p := Payload{
		TracedID: txn.DTTraceID,
		ID:       txn.DTTxnID,
		Priority: txn.DTPriority,
	}
	p.Type = CallerTypeApp
	if txn.Reply != nil {
		p.Account = txn.Reply.AccountID
		p.App = txn.Reply.PrimaryAppID
		p.TrustedAccountKey = txn.Reply.TrustedAccountKey
	}
	p.TransactionID = txn.DTTxnID
	p.Timestamp.Set(now)
	p.SetSampled(txn.DTSampled)
	txn.TypeFlags |= TxnTypeDtOutbound
	return p
}

// AcceptDistributedTraceHeaders ingests an inbound DT payload,
// recording it for later finalisation rollups (spec §4.7's
// DurationByCaller/TransportDuration cascade).
func (txn *Txn) AcceptDistributedTraceHeaders(p *Payload, transportDuration time.Duration) {
	if p == nil {
		return
	}
	p.TransportDuration = transportDuration
	txn.DTInbound = p
	txn.TypeFlags |= TxnTypeDtInbound
	if p.Sampled != nil {
		txn.DTSampled = *p.Sampled
	}
	if p.Priority != 0 {
		txn.DTPriority = p.Priority
	}
}

// End implements spec §4.1's end: naming, finalisation metrics, and
// clearing Recording. It is idempotent and a no-op when Ignore is set.
func (txn *Txn) End(now time.Time) {
	if txn.Ignore || !txn.Recording {
		txn.Recording = false
		return
	}
	if _, ok := txn.FreezeName(); !ok {
		txn.Recording = false
		return
	}

	txn.Tree.End(txn.Tree.Root, now)
	txn.Finalize(now)

	txn.Intrinsics["guid"] = txn.DTTxnID
	if txn.Reply != nil {
		txn.Intrinsics["trip_id"] = txn.DTTraceID
	}

	txn.Recording = false
}
