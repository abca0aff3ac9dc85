// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"testing"
)

func TestNewApplicationAppliesOptions(t *testing.T) {
	app, err := NewApplication(ConfigAppName("my app"), ConfigLicense("abc123"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Config().AppName != "my app" {
		t.Error("app name option not applied", app.Config().AppName)
	}
}

func TestStartTransactionNilApplicationIsSafe(t *testing.T) {
	var app *Application
	txn := app.StartTransaction("name", false)
	if txn != nil {
		t.Error("StartTransaction on a nil Application should return nil")
	}
	// every Transaction method must tolerate a nil receiver too.
	txn.End()
	txn.Ignore()
	txn.AddAttribute("k", "v")
	txn.NoticeError(nil)
}

func TestTransactionEndMergesIntoApplicationHarvest(t *testing.T) {
	app, err := NewApplication(ConfigAppName("harvest test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	txn := app.StartTransaction("WebTransaction/Go/hello", false)
	if txn == nil {
		t.Fatal("StartTransaction should not return nil")
	}
	seg := txn.StartSegment("custom work")
	seg.End()
	txn.End()

	h := app.Harvest()
	if h.Metrics.Len() == 0 {
		t.Error("ending a transaction should populate the application's harvest metrics")
	}
}

func TestHarvestSwapResetsAccumulator(t *testing.T) {
	app, err := NewApplication()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txn := app.StartTransaction("OtherTransaction/Go/bg", true)
	txn.End()

	first := app.Harvest()
	if first.Metrics.Len() == 0 {
		t.Fatal("expected metrics from the first transaction")
	}
	second := app.Harvest()
	if second.Metrics.Len() != 0 {
		t.Error("a second harvest with no new transactions should be empty", second.Metrics.Len())
	}
}
