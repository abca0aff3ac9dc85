// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"testing"
	"time"
)

func TestCustomEventPoolAddUntilCapacity(t *testing.T) {
	p := NewCustomEventPool(2)
	now := time.Now()
	if !p.Add("Signup", now, nil) {
		t.Error("first add should succeed")
	}
	if !p.Add("Signup", now, nil) {
		t.Error("second add should succeed")
	}
	if p.Add("Signup", now, nil) {
		t.Error("third add should be dropped once the pool is full")
	}
	if p.Len() != 2 {
		t.Error("pool should hold exactly 2 events", p.Len())
	}
	if p.Dropped() != 1 {
		t.Error("expected exactly 1 dropped event", p.Dropped())
	}
}

func TestCustomEventPoolEventsReturnsACopy(t *testing.T) {
	p := NewCustomEventPool(10)
	p.Add("A", time.Now(), UserAttributes{"k": "v"})

	events := p.Events()
	events[0].EventType = "mutated"

	again := p.Events()
	if again[0].EventType != "A" {
		t.Error("Events() must return an independent copy, mutation leaked into the pool")
	}
}

func TestCustomEventPoolPreservesInsertionOrder(t *testing.T) {
	p := NewCustomEventPool(10)
	p.Add("First", time.Now(), nil)
	p.Add("Second", time.Now(), nil)
	p.Add("Third", time.Now(), nil)

	events := p.Events()
	want := []string{"First", "Second", "Third"}
	for i, w := range want {
		if events[i].EventType != w {
			t.Errorf("event %d: got %q, want %q", i, events[i].EventType, w)
		}
	}
}

func TestCustomEventPoolZeroCapacityDropsEverything(t *testing.T) {
	p := NewCustomEventPool(0)
	if p.Add("X", time.Now(), nil) {
		t.Error("a zero-capacity pool must drop every event")
	}
	if p.Dropped() != 1 {
		t.Error("expected the drop to be counted", p.Dropped())
	}
}
