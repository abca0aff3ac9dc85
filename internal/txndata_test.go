// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"testing"
	"time"
)

func newTestTxn(t *testing.T) *Txn {
	t.Helper()
	opts := Options{
		ErrorCollectorEnabled: true,
		CustomEventsEnabled:   true,
	}
	reply := ConnectReplyDefaults()
	txn := BeginTxn(opts, reply, false, time.Now())
	if txn == nil {
		t.Fatal("BeginTxn returned nil with a valid reply")
	}
	return txn
}

func TestBeginTxnNilReplyFails(t *testing.T) {
	if txn := BeginTxn(Options{}, nil, false, time.Now()); txn != nil {
		t.Error("BeginTxn must fail without a connect reply")
	}
}

func TestSetNamePathTypePriority(t *testing.T) {
	txn := newTestTxn(t)

	if !txn.SetName("a", "a", PathUri, false) {
		t.Fatal("first SetName should always succeed")
	}
	if txn.SetName("b", "b", PathUnknown, true) {
		t.Error("a lower path type must never overwrite a higher one")
	}
	if txn.Name != "a" {
		t.Error("name should still be a", txn.Name)
	}
	if !txn.SetName("c", "c", PathFunction, false) {
		t.Error("a strictly higher path type must always overwrite")
	}
	if txn.Name != "c" {
		t.Error("name should now be c", txn.Name)
	}
	if txn.SetName("d", "d", PathFunction, false) {
		t.Error("same path type without okToOverwrite must fail")
	}
	if !txn.SetName("e", "e", PathFunction, true) {
		t.Error("same path type with okToOverwrite must succeed")
	}
}

func TestSetNameFrozenIsImmutable(t *testing.T) {
	txn := newTestTxn(t)
	txn.SetName("a", "a", PathCustom, false)
	if _, ok := txn.FreezeName(); !ok {
		t.Fatal("freeze should succeed")
	}
	if txn.SetName("b", "b", PathFunction, true) {
		t.Error("a frozen name must never change, regardless of path type")
	}
}

func TestValidNodeEndRejectsBeforeRootStart(t *testing.T) {
	txn := newTestTxn(t)
	before := txn.Tree.Root.Start.When.Add(-time.Second)
	ok := txn.ValidNodeEnd(TxnTime{When: before, Stamp: 1}, TxnTime{When: before.Add(time.Second), Stamp: 2})
	if ok {
		t.Error("a start before the root's start must be rejected")
	}
}

func TestValidNodeEndRequiresMonotonicStamp(t *testing.T) {
	txn := newTestTxn(t)
	now := time.Now()
	ok := txn.ValidNodeEnd(TxnTime{When: now, Stamp: 5}, TxnTime{When: now.Add(time.Millisecond), Stamp: 5})
	if ok {
		t.Error("equal stamps must not be considered a valid interval")
	}
}

func TestSetIgnoreStopsRecording(t *testing.T) {
	txn := newTestTxn(t)
	txn.SetIgnore()
	if txn.Recording {
		t.Error("SetIgnore must stop recording")
	}
	if seg := txn.StartSegment(time.Now(), nil, ""); seg != nil {
		t.Error("StartSegment must be a no-op once ignored")
	}
}

func TestNoticeErrorKeepsHigherPriority(t *testing.T) {
	txn := newTestTxn(t)
	now := time.Now()
	txn.NoticeError("low", "LowError", 0.1, nil, now)
	txn.NoticeError("high", "HighError", 0.9, nil, now)
	if txn.Error.Message != "high" {
		t.Error("higher priority error should win", txn.Error.Message)
	}
	txn.NoticeError("lower again", "LowAgain", 0.2, nil, now)
	if txn.Error.Message != "high" {
		t.Error("a lower priority error must not replace the recorded one", txn.Error.Message)
	}
}
