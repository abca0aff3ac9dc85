// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"encoding/json"
	"testing"
)

func TestBuildTracePayloadIsATwoElementArray(t *testing.T) {
	txn := newTestTxn(t)
	raw, err := txn.BuildTracePayload(DefaultMaxTraceSegments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outer) != 2 {
		t.Fatalf("expected [body, stringTable], got %d elements", len(outer))
	}
	var table []string
	if err := json.Unmarshal(outer[1], &table); err != nil {
		t.Fatalf("second element should be the interned string table: %v", err)
	}
}

func TestBuildTracePayloadRootWrapperCarriesDurationAndROOTLiteral(t *testing.T) {
	txn := newTestTxn(t)
	raw, err := txn.BuildTracePayload(DefaultMaxTraceSegments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var outer []json.RawMessage
	json.Unmarshal(raw, &outer)
	var body []json.RawMessage
	if err := json.Unmarshal(outer[0], &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var root []json.RawMessage
	if err := json.Unmarshal(body[3], &root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var literal string
	if err := json.Unmarshal(root[2], &literal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if literal != "ROOT" {
		t.Errorf("expected the fixed ROOT literal, got %q", literal)
	}
}
