// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"testing"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication(ConfigAppName("segments test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return app
}

func TestSegmentEndNilSafe(t *testing.T) {
	var seg *Segment
	seg.End() // must not panic
}

func TestBasicSegmentEndDoesNotPreventTransactionFinalization(t *testing.T) {
	app := newTestApp(t)
	txn := app.StartTransaction("WebTransaction/Go/hello", false)

	seg := txn.StartSegment("custom work")
	if seg == nil {
		t.Fatal("StartSegment should not return nil on a live transaction")
	}
	seg.End()
	txn.End()

	h := app.Harvest()
	var found bool
	for _, name := range h.Metrics.Names() {
		if name == "HttpDispatcher" {
			found = true
		}
	}
	if !found {
		t.Error("ending a basic segment must not interfere with normal transaction finalization", h.Metrics.Names())
	}
}

func TestDatastoreSegmentEndNilSafe(t *testing.T) {
	var seg *DatastoreSegment
	seg.End() // must not panic
}

func TestDatastoreSegmentEndEmitsDatastoreMetrics(t *testing.T) {
	app := newTestApp(t)
	txn := app.StartTransaction("WebTransaction/Go/hello", false)

	seg := &DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    DatastorePostgres,
		Collection: "users",
		Operation:  "select",
	}
	seg.End()
	txn.End()

	h := app.Harvest()
	if h.Metrics.Len() == 0 {
		t.Error("expected datastore metrics in the harvest")
	}
}

func TestExternalSegmentEndNilSafe(t *testing.T) {
	var seg *ExternalSegment
	seg.End() // must not panic
}

func TestExternalSegmentEndEmitsExternalMetrics(t *testing.T) {
	app := newTestApp(t)
	txn := app.StartTransaction("WebTransaction/Go/hello", false)

	seg := &ExternalSegment{
		StartTime: txn.StartSegmentNow(),
		URL:       "https://example.com/",
	}
	seg.End()
	txn.End()

	h := app.Harvest()
	if h.Metrics.Len() == 0 {
		t.Error("expected external metrics in the harvest")
	}
}
