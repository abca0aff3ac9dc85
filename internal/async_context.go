// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// AsyncContext accrues "off-wallclock" duration for a named async
// scope (spec §3.3, component A).  A segment tagged with an async
// context is still terminated synchronously by the owning execution
// context; the async context only tracks how much of its lifetime
// should be excluded from the parent's exclusive-time accounting.
type AsyncContext struct {
	Start                      time.Time
	Stop                       time.Time
	CumulativeOffThreadDuration time.Duration
}

// ExtraTime returns max(0, cumulative - (stop-start)): the portion of
// off-thread work that did not overlap with the context's own
// wall-clock span, and so must be added to the transaction's
// AsyncDuration on top of its own duration.
func (a *AsyncContext) ExtraTime() time.Duration {
	span := a.Stop.Sub(a.Start)
	extra := a.CumulativeOffThreadDuration - span
	if extra < 0 {
		return 0
	}
	return extra
}
