// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"bytes"
	"fmt"
	"strconv"
)

// Priority allows for a priority sampling of events.  When an event is
// created it is given a Priority.  Whenever an event pool is full and
// events need to be dropped, the events with the lowest priority are
// dropped first.
type Priority float32

// Agents SHOULD truncate the value to at most 6 digits past the decimal
// point.
const priorityFormat = "%.6f"

// Float32 returns the priority as a float32.
func (p Priority) Float32() float32 { return float32(p) }

func (p Priority) isLowerPriority(y Priority) bool { return p < y }

// MarshalJSON limits the number of decimals.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(priorityFormat, p)), nil
}

// WriteJSON limits the number of decimals.
func (p Priority) WriteJSON(buf *bytes.Buffer) {
	fmt.Fprintf(buf, priorityFormat, p)
}

func (p Priority) traceStateFormat() string {
	return strconv.FormatFloat(float64(p), 'f', 5, 32)
}
