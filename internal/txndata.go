// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"time"
)

// CrossProcessState is the transaction's CAT handshake phase (spec
// §3.1).
type CrossProcessState int

const (
	CrossProcessDisabled CrossProcessState = iota
	CrossProcessStart
	CrossProcessResponseCreated
)

// TxnTypeFlag is a bit in the transaction's type bitset (spec §3.1).
type TxnTypeFlag int

const (
	TxnTypeSynthetics TxnTypeFlag = 1 << iota
	TxnTypeCatInbound
	TxnTypeCatOutbound
	TxnTypeDtInbound
	TxnTypeDtOutbound
)

// RecordedError is the at-most-one error a transaction retains (spec
// §3.6): a later NoticeError only replaces it if strictly higher
// priority.
type RecordedError struct {
	Message    string
	Klass      string
	Priority   Priority
	Attributes UserAttributes
	When       time.Time
}

// cpuUsage is a snapshot of process CPU time, captured at begin and
// end (spec §4.1, §4.7). The core treats CPU accounting as an opaque
// external input ("contract only"): a host integration is expected to
// fill these in via Txn.SetCPUUsage, matching the teacher's own
// separation between the engine and OS-specific sampling helpers.
type cpuUsage struct {
	User   time.Duration
	System time.Duration
}

// Txn is the per-request context that owns every other per-transaction
// structure: status flags, the naming state machine, the segment
// tree, the metric tables, the slow-SQL store, the custom-event
// reservoir, attributes, and distributed-trace/CAT state (spec §3.1,
// component H).
type Txn struct {
	Options Options
	Reply   *ConnectReply

	Recording     bool
	Ignore        bool
	IgnoreApdex   bool
	Background    bool
	PathFrozen    bool
	PathType      PathType
	CrossProcess  CrossProcessState
	TypeFlags     TxnTypeFlag

	Name string
	Path string

	QueueStart time.Time

	Tree              *Tree
	DatastoreProducts *StringPool

	ScopedMetrics   *MetricTable
	UnscopedMetrics *MetricTable
	SlowQueries     *SlowQueryStore
	CustomEvents    *CustomEventPool

	TraceAttributes   UserAttributes
	EventAttributes   UserAttributes
	ErrorAttributes   UserAttributes
	BrowserAttributes UserAttributes

	Intrinsics map[string]any

	Error *RecordedError

	AsyncDuration     time.Duration
	RootKidsDuration  time.Duration

	startCPU cpuUsage
	endCPU   cpuUsage

	// ApdexT is taken from the connect reply's ApdexThresholdSeconds and
	// TTThreshold from Options at begin; both may be overridden by the
	// key-transaction apdex lookup at freeze (spec §4.5 step 8).
	ApdexT      time.Duration
	TTThreshold time.Duration

	DTTxnID      string
	DTTraceID    string
	DTSampled    bool
	DTPriority   Priority
	DTInbound    *Payload

	// lastAddedSegment is the most recently saved node across every
	// segment-saving path (custom, datastore, external); it is the
	// transaction-wide analogue of the original's txn->last_added and
	// lets EndExternal detect whether any node was saved in between two
	// adjacent external calls before collapsing them together.
	lastAddedSegment *Segment

	startTime time.Time
}

// BeginTxn implements spec §4.1's begin: it fails (returns nil) if
// reply is nil, copies opts, joins the security policy, and seeds
// every per-transaction pool, table, and the root segment.
func BeginTxn(opts Options, reply *ConnectReply, background bool, now time.Time) *Txn {
	if reply == nil {
		return nil
	}
	o := opts.Copy()
	reply.SecurityPolicies.Join(&o)

	txn := &Txn{
		Options:           o,
		Reply:             reply,
		Recording:         true,
		Background:        background,
		PathType:          PathUnknown,
		Tree:              NewTree(now),
		DatastoreProducts: NewStringPool(),
		ScopedMetrics:     NewMetricTable(DefaultMetricLimit),
		UnscopedMetrics:   NewMetricTable(DefaultMetricLimit),
		SlowQueries:       NewSlowQueryStore(DefaultSlowQueryLimit),
		CustomEvents:      NewCustomEventPool(DefaultCustomEventLimit),
		TraceAttributes:   UserAttributes{},
		EventAttributes:   UserAttributes{},
		ErrorAttributes:   UserAttributes{},
		BrowserAttributes: UserAttributes{},
		Intrinsics:        make(map[string]any),
		ApdexT:            apdexTFromReply(reply),
		TTThreshold:       o.TTThreshold,
		startTime:         now,
	}

	txn.startCPU = cpuUsage{}

	txn.seedDistributedTrace(reply, now)

	return txn
}

func apdexTFromReply(reply *ConnectReply) time.Duration {
	return time.Duration(reply.ApdexThresholdSeconds * float64(time.Second))
}

// seedDistributedTrace assigns a fresh transaction/trace id pair and
// computes the initial sampling decision and priority (spec §4.1).
func (txn *Txn) seedDistributedTrace(reply *ConnectReply, now time.Time) {
	gen := reply.TraceIDGenerator
	if gen == nil {
		gen = NewTraceIDGenerator(now.UnixNano())
	}
	txn.DTTxnID = gen.GenerateSpanID()
	txn.DTTraceID = gen.GenerateTraceID()
	txn.DTPriority = gen.GeneratePriority()
	txn.DTSampled = false
	if txn.Options.DistributedTracingEnabled {
		txn.DTSampled = txn.DTPriority >= 0.9
		if txn.DTSampled {
			txn.DTPriority += 1.0
		}
	}
}

// SetCPUUsage lets a host integration record process CPU time at
// begin/end without the core depending on any OS-specific sampler.
func (txn *Txn) SetCPUUsage(end bool, user, system time.Duration) {
	u := cpuUsage{User: user, System: system}
	if end {
		txn.endCPU = u
	} else {
		txn.startCPU = u
	}
}

// SetIgnore marks the transaction as abandoned: subsequent mutation
// becomes a no-op and End short-circuits without emitting anything
// (spec §5, "Cancellation / timeouts").
func (txn *Txn) SetIgnore() {
	txn.Ignore = true
	txn.Recording = false
}

// StartSegment delegates to the tree, but is a no-op once the
// transaction has stopped recording.
func (txn *Txn) StartSegment(now time.Time, parent *Segment, asyncContext string) *Segment {
	if !txn.Recording {
		return nil
	}
	return txn.Tree.Start(now, parent, asyncContext)
}

// EndSegment delegates to the tree; a no-op once the transaction has
// stopped recording.
func (txn *Txn) EndSegment(seg *Segment, now time.Time) bool {
	if !txn.Recording {
		return false
	}
	ok := txn.Tree.End(seg, now)
	if ok {
		txn.lastAddedSegment = seg
	}
	return ok
}

// ValidNodeEnd implements spec §4.8's valid_node_end predicate.
func (txn *Txn) ValidNodeEnd(start, stop TxnTime) bool {
	if !txn.Recording {
		return false
	}
	if txn.Tree == nil || txn.Tree.Root == nil {
		return false
	}
	if start.When.Before(txn.Tree.Root.Start.When) {
		return false
	}
	if stop.When.Before(start.When) {
		return false
	}
	return stop.Stamp > start.Stamp
}

// SetName sets the working name/path subject to path-type priority
// (spec §3.1): a higher path type may always overwrite a lower one; an
// equal type only overwrites when okToOverwrite is true; nothing
// overwrites once PathFrozen.
func (txn *Txn) SetName(name, path string, pathType PathType, okToOverwrite bool) bool {
	if txn.PathFrozen {
		return false
	}
	if pathType < txn.PathType {
		return false
	}
	if pathType == txn.PathType && !okToOverwrite {
		return false
	}
	txn.Name = name
	txn.Path = path
	txn.PathType = pathType
	return true
}

// FreezeName runs the naming pipeline (spec §4.5) exactly once. Later
// calls are no-ops returning the already-frozen name.
func (txn *Txn) FreezeName() (string, bool) {
	if txn.PathFrozen {
		return txn.Name, true
	}
	if txn.Ignore {
		return "", false
	}

	var rules, txnRules RuleSet
	var terms []SegmentTerm
	if txn.Reply != nil {
		rules = txn.Reply.URLRules
		txnRules = txn.Reply.TxnNameRules
		terms = txn.Reply.SegmentTerms
	}

	name, outcome := FreezeName(txn.Background, txn.PathType, txn.Path, rules, txnRules, terms)
	if outcome == RuleIgnore {
		txn.SetIgnore()
		return "", false
	}

	txn.Name = name
	txn.PathFrozen = true

	if txn.Reply != nil {
		if v, ok := txn.Reply.KeyTxnApdex[name]; ok && v > 0 {
			txn.ApdexT = time.Duration(v * float64(time.Second))
			if txn.Options.TTIsApdexF {
				txn.TTThreshold = 4 * txn.ApdexT
			}
		}
	}

	return txn.Name, true
}
