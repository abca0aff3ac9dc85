// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"fmt"
	"time"

	"github.com/tracehouse/apm-agent-core/internal/sysinfo"
)

// DatastoreVendor is a known datastore kind, or Other for a caller-
// supplied string (spec §4.6.1, grounded on the teacher's
// newrelic.DatastoreProduct constants).
type DatastoreVendor string

const DatastoreOther DatastoreVendor = "Other"

// DatastoreCall is the input record to EndDatastore (spec §4.6.1).
type DatastoreCall struct {
	Start, Stop time.Time

	Vendor          DatastoreVendor
	VendorOther     string // caller-supplied display string when Vendor == DatastoreOther
	Collection      string
	Operation       string
	SQL             string
	ExplainPlanJSON string
	InputQueryJSON  string

	Instance *DatastoreInstance

	AsyncContext string

	// Backtrace, if non-nil, is invoked only when duration warrants it
	// (spec §4.6.1 step 8).
	Backtrace func() string
	// ModifyTableName lets the caller rewrite an extracted table name
	// in place (spec §4.6.1 step 2).
	ModifyTableName func(table string) string
}

// EndDatastore implements spec §4.6.1: it validates the interval,
// resolves vendor/operation/collection, emits the metric cascade, and
// saves a trace node (returned, with typed attributes populated) plus
// an optional slow-SQL candidate.
func (txn *Txn) EndDatastore(call DatastoreCall) *Segment {
	start := TxnTime{When: call.Start, Stamp: txn.Tree.stamp}
	stop := TxnTime{When: call.Stop, Stamp: txn.Tree.stamp + 1}
	if !txn.ValidNodeEnd(start, stop) {
		return nil
	}

	operation, collection := call.Operation, call.Collection
	sqlKnown := call.SQL != ""
	if sqlKnown && (operation == "" || collection == "") {
		extractedOp, extractedTable := ExtractOperationAndTable(call.SQL)
		if operation == "" {
			operation = extractedOp
		}
		if collection == "" {
			collection = extractedTable
			if call.ModifyTableName != nil && collection != "" {
				collection = call.ModifyTableName(collection)
			}
		}
	}

	var display string
	if call.Vendor != DatastoreOther {
		display = string(call.Vendor)
	} else {
		display = call.VendorOther
	}
	if display == "" {
		return nil
	}

	txn.DatastoreProducts.Add(display)

	if operation == "" {
		operation = "other"
	}

	seg := txn.Tree.Start(call.Start, nil, call.AsyncContext)
	txn.Tree.SetTiming(seg, call.Start, call.Stop.Sub(call.Start))
	seg.Type = SegmentTypeDatastore

	duration := seg.Duration()
	if call.AsyncContext == "" {
		txn.RootKidsDuration += duration
	}

	txn.UnscopedMetrics.Add("Datastore/all", duration, duration, Forced)
	txn.UnscopedMetrics.Add("Datastore/"+display+"/all", duration, duration, Forced)

	var traceNodeName string
	if collection != "" {
		txn.UnscopedMetrics.Add(fmt.Sprintf("Datastore/operation/%s/%s", display, operation), duration, 0, Unforced)
		traceNodeName = fmt.Sprintf("Datastore/statement/%s/%s/%s", display, collection, operation)
		txn.ScopedMetrics.Add(traceNodeName, duration, duration, Unforced)
	} else {
		traceNodeName = fmt.Sprintf("Datastore/operation/%s/%s", display, operation)
		txn.ScopedMetrics.Add(traceNodeName, duration, duration, Unforced)
	}
	txn.Tree.SetName(seg, traceNodeName)

	if call.Instance != nil && txn.Options.InstanceReporting {
		host := call.Instance.Host
		if host == "" {
			host = "unknown"
		} else if host == "localhost" {
			if real, err := sysinfo.Hostname(false, nil); err == nil && real != "" {
				host = real
			}
		}
		port := call.Instance.PortPathOrID
		if port == "" {
			port = "unknown"
		}
		txn.UnscopedMetrics.Add(fmt.Sprintf("Datastore/instance/%s/%s/%s", display, host, port), 0, 0, Forced)
	}

	attrs := DatastoreAttributes{Component: display}
	if call.Instance != nil {
		inst := *call.Instance
		if inst.Host == "localhost" {
			if real, err := sysinfo.Hostname(false, nil); err == nil && real != "" {
				inst.Host = real
			}
		}
		if call.Instance.PortPathOrID != "" {
			attrs.Instance = &inst
		} else if call.Instance.Host != "" {
			attrs.Instance = &inst
		}
	}
	if call.ExplainPlanJSON != "" {
		attrs.ExplainPlanJSON = call.ExplainPlanJSON
	}
	if txn.Options.DatabaseNameReporting && call.Instance != nil && call.Instance.DatabaseName != "" {
		if attrs.Instance == nil {
			attrs.Instance = &DatastoreInstance{}
		}
		attrs.Instance.DatabaseName = call.Instance.DatabaseName
	}
	if call.Backtrace != nil && duration >= txn.Options.SSThreshold {
		attrs.BacktraceJSON = call.Backtrace()
	}

	obfuscated := ""
	switch txn.effectiveRecordSQL() {
	case RecordSQLRaw:
		attrs.SQL = call.SQL
		attrs.InputQueryJSON = call.InputQueryJSON
	case RecordSQLObfuscated:
		obfuscated = ObfuscateSQL(call.SQL)
		attrs.SQLObfuscated = obfuscated
		attrs.InputQueryJSON = ObfuscateSQL(call.InputQueryJSON)
	case RecordSQLOff:
		// omit SQL entirely
	}
	seg.Typed.SetDatastore(attrs)

	if sqlKnown && duration >= txn.Options.EPThreshold && txn.Options.SlowSQLEnabled && txn.effectiveRecordSQL() != RecordSQLOff {
		if obfuscated == "" {
			obfuscated = ObfuscateSQL(call.SQL)
		}
		fp := Fingerprint(obfuscated, traceNodeName)
		txn.SlowQueries.Add(fp, traceNodeName, call.SQL, obfuscated, txn.DTTxnID, duration, call.Stop)
	}

	txn.Tree.End(seg, call.Stop)
	txn.lastAddedSegment = seg
	return seg
}

// effectiveRecordSQL applies the high-security downgrade of Raw to
// Obfuscated at read time (spec §6.1).
func (txn *Txn) effectiveRecordSQL() RecordSQL {
	if txn.Options.HighSecurity && txn.Options.RecordSQL == RecordSQLRaw {
		return RecordSQLObfuscated
	}
	return txn.Options.RecordSQL
}
