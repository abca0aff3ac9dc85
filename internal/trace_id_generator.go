// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"math/rand"
	"sync"
)

// TraceIDGenerator creates identifiers for distributed tracing and
// transaction GUIDs.  The random source is the one piece of state
// shared across every transaction an Application begins (spec §5), so
// it carries its own mutex.
type TraceIDGenerator struct {
	sync.Mutex
	rnd *rand.Rand
}

// NewTraceIDGenerator creates a new generator seeded deterministically
// so that tests can reproduce a sequence.
func NewTraceIDGenerator(seed int64) *TraceIDGenerator {
	return &TraceIDGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// Float32 returns a random float32 from the shared source, used to seed
// sampling priority.
func (tg *TraceIDGenerator) Float32() float32 {
	tg.Lock()
	defer tg.Unlock()
	return tg.rnd.Float32()
}

// GeneratePriority returns a fresh sampling priority in [0, 1).
func (tg *TraceIDGenerator) GeneratePriority() Priority {
	return Priority(tg.Float32())
}

const (
	traceIDByteLen = 16
	// TraceIDHexStringLen is the length of a trace ID rendered as hex.
	TraceIDHexStringLen = 32
	spanIDByteLen        = 8
	maxIDByteLen         = 16
)

const hextable = "0123456789abcdef"

// GenerateTraceID creates a new trace identifier: a 32 character hex
// string used as a new transaction's trace id (spec §4.1). The
// transaction GUID comes from GenerateSpanID instead.
func (tg *TraceIDGenerator) GenerateTraceID() string {
	return tg.generateID(traceIDByteLen)
}

// GenerateSpanID creates a new span identifier: a 16 character hex string.
func (tg *TraceIDGenerator) GenerateSpanID() string {
	return tg.generateID(spanIDByteLen)
}

func (tg *TraceIDGenerator) generateID(length int) string {
	var bits [maxIDByteLen]byte
	tg.Lock()
	tg.rnd.Read(bits[:length])
	tg.Unlock()

	out := make([]byte, 2*length)
	for i := 0; i < length; i++ {
		out[i*2] = hextable[bits[i]>>4]
		out[i*2+1] = hextable[bits[i]&0x0f]
	}
	return string(out)
}
