// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"testing"
	"time"
)

func TestAddAttributeWritesBothTraceAndEventBuckets(t *testing.T) {
	txn := newTestTxn(t)
	txn.AddAttribute("k", "v")
	if txn.TraceAttributes["k"] != "v" {
		t.Error("expected the attribute in the trace bucket")
	}
	if txn.EventAttributes["k"] != "v" {
		t.Error("expected the attribute in the event bucket")
	}
}

func TestAddAttributeIgnoredOnceNotRecording(t *testing.T) {
	txn := newTestTxn(t)
	txn.SetIgnore()
	txn.AddAttribute("k", "v")
	if _, ok := txn.TraceAttributes["k"]; ok {
		t.Error("AddAttribute must be a no-op once the transaction has stopped recording")
	}
}

func TestNoticeErrorMergesExtraOverAmbientAttributes(t *testing.T) {
	txn := newTestTxn(t)
	txn.ErrorAttributes["shared"] = "ambient"
	txn.ErrorAttributes["only-ambient"] = "a"
	now := time.Now()
	txn.NoticeError("boom", "Error", 1.0, UserAttributes{"shared": "per-call", "only-extra": "b"}, now)

	if txn.Error.Attributes["shared"] != "per-call" {
		t.Error("a per-call attribute must win over an ambient one with the same key")
	}
	if txn.Error.Attributes["only-ambient"] != "a" {
		t.Error("ambient attributes not overridden should still be present")
	}
	if txn.Error.Attributes["only-extra"] != "b" {
		t.Error("per-call-only attributes should be present")
	}
}

func TestRecordCustomEventGatedByOption(t *testing.T) {
	txn := newTestTxn(t)
	txn.Options.CustomEventsEnabled = false
	if txn.RecordCustomEvent("Signup", nil, time.Now()) {
		t.Error("RecordCustomEvent must fail when CustomEventsEnabled is false")
	}
}

func TestInsertDistributedTraceHeadersUsesReplyIdentity(t *testing.T) {
	txn := newTestTxn(t)
	now := time.Now()
	p := txn.InsertDistributedTraceHeaders(now)
	if p.Account != txn.Reply.AccountID {
		t.Error("expected the account id from the connect reply", p.Account)
	}
	if p.App != txn.Reply.PrimaryAppID {
		t.Error("expected the app id from the connect reply", p.App)
	}
	if txn.TypeFlags&TxnTypeDtOutbound == 0 {
		t.Error("InsertDistributedTraceHeaders must set the outbound DT flag")
	}
}

func TestAcceptDistributedTraceHeadersAdoptsInboundSampledAndPriority(t *testing.T) {
	txn := newTestTxn(t)
	sampled := true
	in := &Payload{Priority: 0.75, Sampled: &sampled}

	txn.AcceptDistributedTraceHeaders(in, 5*time.Millisecond)

	if !txn.DTSampled {
		t.Error("expected the inbound sampled decision to be adopted")
	}
	if txn.DTPriority != 0.75 {
		t.Error("expected the inbound priority to be adopted", txn.DTPriority)
	}
	if txn.TypeFlags&TxnTypeDtInbound == 0 {
		t.Error("AcceptDistributedTraceHeaders must set the inbound DT flag")
	}
	if txn.DTInbound != in {
		t.Error("expected the inbound payload to be retained for finalisation")
	}
}

func TestAcceptDistributedTraceHeadersNilIsNoop(t *testing.T) {
	txn := newTestTxn(t)
	originalPriority := txn.DTPriority
	txn.AcceptDistributedTraceHeaders(nil, time.Millisecond)
	if txn.DTInbound != nil {
		t.Error("a nil inbound payload must not be retained")
	}
	if txn.DTPriority != originalPriority {
		t.Error("a nil inbound payload must not change the transaction's priority")
	}
}

func TestEndSetsGUIDAndTripIDIntrinsics(t *testing.T) {
	txn := newTestTxn(t)
	now := time.Now()
	txn.End(now.Add(time.Millisecond))

	if txn.Intrinsics["guid"] != txn.DTTxnID {
		t.Error("expected the guid intrinsic to be set on End")
	}
	if txn.Intrinsics["trip_id"] != txn.DTTraceID {
		t.Error("expected the trip_id intrinsic to be set on End when a reply is present")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	txn := newTestTxn(t)
	now := time.Now()
	txn.End(now)
	txn.End(now.Add(time.Millisecond))
	if txn.Recording {
		t.Error("End must leave Recording false, even called twice")
	}
}
