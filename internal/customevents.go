// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// DefaultCustomEventLimit is the default bound on a CustomEventPool
// (spec §3.6).
const DefaultCustomEventLimit = 10000

// CustomEvent is one recorded custom event (spec §3.6).
type CustomEvent struct {
	EventType  string
	Timestamp  time.Time
	Attributes UserAttributes
}

// CustomEventPool is a fixed-capacity reservoir of custom events. Once
// full, additional events are dropped and counted (spec §7
// ResourceExhausted); this is a simpler truncation policy than
// priority-sampling reservoirs elsewhere in the system because custom
// events have no priority field to sample on (spec §3.6 "Unresolved in
// source").
type CustomEventPool struct {
	capacity int
	events   []CustomEvent
	dropped  int
}

// NewCustomEventPool creates a pool with the given capacity.
func NewCustomEventPool(capacity int) *CustomEventPool {
	return &CustomEventPool{capacity: capacity}
}

// Add records one custom event, returning false if the pool was
// already full.
func (p *CustomEventPool) Add(eventType string, now time.Time, attrs UserAttributes) bool {
	if len(p.events) >= p.capacity {
		p.dropped++
		return false
	}
	p.events = append(p.events, CustomEvent{EventType: eventType, Timestamp: now, Attributes: attrs})
	return true
}

// Len returns the number of events currently held.
func (p *CustomEventPool) Len() int { return len(p.events) }

// Dropped returns the number of events rejected due to capacity.
func (p *CustomEventPool) Dropped() int { return p.dropped }

// Events returns the events recorded so far, in insertion order.
func (p *CustomEventPool) Events() []CustomEvent {
	out := make([]CustomEvent, len(p.events))
	copy(out, p.events)
	return out
}
