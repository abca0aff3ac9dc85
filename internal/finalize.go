// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"fmt"
	"strings"
	"time"
)

// ApdexZone is the satisfying/tolerating/failing label (spec §4.7,
// GLOSSARY "Apdex").
type ApdexZone int

const (
	ApdexSatisfying ApdexZone = iota
	ApdexTolerating
	ApdexFailing
)

func (z ApdexZone) String() string {
	switch z {
	case ApdexSatisfying:
		return "S"
	case ApdexTolerating:
		return "T"
	default:
		return "F"
	}
}

// Finalize runs the finalisation metric cascade of spec §4.7: it must
// be called once, after FreezeName has succeeded, with the
// transaction's root segment already stopped. It returns the apdex
// zone when applicable (web, not IgnoreApdex).
func (txn *Txn) Finalize(stop time.Time) (zone ApdexZone, hasApdex bool) {
	root := txn.Tree.Root
	if root.Stop.When.IsZero() {
		txn.Tree.End(root, stop)
	}
	duration := root.Duration()
	totalDuration := duration + txn.AsyncDuration
	exclusive := duration - txn.RootKidsDuration
	if exclusive < 0 {
		exclusive = 0
	}

	suffix := metricSuffix(txn.Name, txn.Background)

	if txn.Background {
		txn.UnscopedMetrics.Add("OtherTransaction/all", duration, exclusive, Forced)
		txn.UnscopedMetrics.Add("OtherTransaction/"+suffix, duration, exclusive, Forced)
		txn.UnscopedMetrics.Add("OtherTransactionTotalTime", totalDuration, totalDuration, Forced)
		txn.UnscopedMetrics.Add("OtherTransactionTotalTime/"+suffix, totalDuration, totalDuration, Forced)
	} else {
		txn.UnscopedMetrics.Add("HttpDispatcher", duration, exclusive, Forced)
		txn.UnscopedMetrics.Add("WebTransaction", duration, exclusive, Forced)
		txn.UnscopedMetrics.Add("WebTransaction/"+suffix, duration, exclusive, Forced)
		txn.UnscopedMetrics.Add("WebTransactionTotalTime", totalDuration, totalDuration, Forced)
		txn.UnscopedMetrics.Add("WebTransactionTotalTime/"+suffix, totalDuration, totalDuration, Forced)
	}

	if !txn.Background && !txn.IgnoreApdex {
		zone = apdexZoneFor(duration, txn.ApdexT, txn.Error != nil)
		hasApdex = true
		s, t, f := apdexCounts(zone)
		txn.UnscopedMetrics.AddApdex("Apdex", s, t, f, txn.ApdexT, Forced)
		txn.UnscopedMetrics.AddApdex("Apdex/"+suffix, s, t, f, txn.ApdexT, Forced)
	}

	if txn.Error != nil {
		webOrOther := "Web"
		if txn.Background {
			webOrOther = "Other"
		}
		txn.UnscopedMetrics.Add("Errors/all", 0, 0, Forced)
		txn.UnscopedMetrics.Add("Errors/all"+webOrOther, 0, 0, Forced)
		txn.UnscopedMetrics.Add("Errors/"+txn.Name, 0, 0, Forced)
	}

	if !txn.Background && !txn.QueueStart.IsZero() {
		queueTime := root.Start.When.Sub(txn.QueueStart)
		if queueTime < 0 {
			queueTime = 0
		}
		txn.UnscopedMetrics.Add("WebFrontend/QueueTime", queueTime, queueTime, Forced)
	}

	txn.rollupAllMetrics()

	if txn.Options.DistributedTracingEnabled {
		txn.distributedTraceRollups(duration)
	}

	txn.Intrinsics["totalTime"] = totalDuration.Seconds()
	txn.Intrinsics["cpu_time"] = (txn.endCPU.User + txn.endCPU.System - txn.startCPU.User - txn.startCPU.System).Seconds()
	txn.Intrinsics["cpu_user_time"] = (txn.endCPU.User - txn.startCPU.User).Seconds()
	txn.Intrinsics["cpu_sys_time"] = (txn.endCPU.System - txn.startCPU.System).Seconds()
	if hasApdex {
		txn.Intrinsics["apdexZone"] = zone.String()
	}

	return zone, hasApdex
}

// metricSuffix returns the part of name after its literal
// WebTransaction/ or OtherTransaction/ prefix (spec §4.7).
func metricSuffix(name string, background bool) string {
	prefix := "WebTransaction/"
	if background {
		prefix = "OtherTransaction/"
	}
	return strings.TrimPrefix(name, prefix)
}

func apdexZoneFor(duration, apdexT time.Duration, hasError bool) ApdexZone {
	if hasError {
		return ApdexFailing
	}
	switch {
	case duration <= apdexT:
		return ApdexSatisfying
	case duration <= 4*apdexT:
		return ApdexTolerating
	default:
		return ApdexFailing
	}
}

func apdexCounts(zone ApdexZone) (satisfying, tolerating, failing float64) {
	switch zone {
	case ApdexSatisfying:
		return 1, 0, 0
	case ApdexTolerating:
		return 0, 1, 0
	default:
		return 0, 0, 1
	}
}

// rollupAllMetrics duplicates the all-scope datastore/external metrics
// into their Web/Other variants and one duplicate per observed
// datastore vendor (spec §4.7 "Rollups").
func (txn *Txn) rollupAllMetrics() {
	webOrOther := "Web"
	if txn.Background {
		webOrOther = "Other"
	}

	if _, total, exclusive, _, _, _, ok := txn.UnscopedMetrics.Get("Datastore/all"); ok {
		txn.UnscopedMetrics.Add("Datastore/all"+webOrOther, durFromSeconds(total), durFromSeconds(exclusive), Forced)
	}
	if _, total, exclusive, _, _, _, ok := txn.UnscopedMetrics.Get("External/all"); ok {
		txn.UnscopedMetrics.Add("External/all"+webOrOther, durFromSeconds(total), durFromSeconds(exclusive), Forced)
	}

	for _, vendor := range txn.DatastoreProducts.Strings() {
		name := "Datastore/" + vendor + "/all"
		if _, total, exclusive, _, _, _, ok := txn.UnscopedMetrics.Get(name); ok {
			txn.UnscopedMetrics.Add(name+webOrOther, durFromSeconds(total), durFromSeconds(exclusive), Forced)
		}
	}
}

func durFromSeconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// distributedTraceRollups emits DurationByCaller/ErrorsByCaller/
// TransportDuration metrics, degrading missing inbound fields to the
// literal "Unknown" (spec §4.7).
func (txn *Txn) distributedTraceRollups(duration time.Duration) {
	webOrOther := "Web"
	if txn.Background {
		webOrOther = "Other"
	}

	typ, account, app, transport := "Unknown", "Unknown", "Unknown", "Unknown"
	if txn.DTInbound != nil {
		if txn.DTInbound.Type != "" {
			typ = txn.DTInbound.Type
		}
		if txn.DTInbound.Account != "" {
			account = txn.DTInbound.Account
		}
		if txn.DTInbound.App != "" {
			app = txn.DTInbound.App
		}
		if txn.DTInbound.TransportType != "" {
			transport = txn.DTInbound.TransportType
		}
	}

	base := fmt.Sprintf("%s/%s/%s/%s", typ, account, app, transport)
	txn.UnscopedMetrics.Add("DurationByCaller/"+base+"/all", duration, duration, Forced)
	txn.UnscopedMetrics.Add("DurationByCaller/"+base+"/all"+webOrOther, duration, duration, Forced)

	if txn.Error != nil {
		txn.UnscopedMetrics.Add("ErrorsByCaller/"+base+"/all", 0, 0, Forced)
		txn.UnscopedMetrics.Add("ErrorsByCaller/"+base+"/all"+webOrOther, 0, 0, Forced)
	}

	if txn.DTInbound != nil {
		td := txn.DTInbound.TransportDuration
		txn.UnscopedMetrics.Add("TransportDuration/"+base+"/all", td, td, Forced)
		txn.UnscopedMetrics.Add("TransportDuration/"+base+"/all"+webOrOther, td, td, Forced)
	}
}
