// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CATResponse is the decoded cross-application response header (spec
// §6.3); parsing the wire encoding is explicitly out of scope for the
// core ("the core only consumes a decoded object").
type CATResponse struct {
	ID      string
	TxnName string
	GUID    string
}

func (c *CATResponse) present() bool {
	return c != nil && c.ID != "" && c.TxnName != ""
}

// ExternalCall is the input record to EndExternal (spec §4.6.2).
type ExternalCall struct {
	Start, Stop  time.Time
	URL          string
	AsyncContext string
	DoRollup     bool
	CAT          *CATResponse
	Library      string
	Procedure    string
}

// EndExternal implements spec §4.6.2: it validates the interval,
// extracts the URL's domain, emits the metric cascade, and either
// collapses into the previous adjacent same-name node or saves a new
// one.
func (txn *Txn) EndExternal(call ExternalCall) *Segment {
	start := TxnTime{When: call.Start, Stamp: txn.Tree.stamp}
	stop := TxnTime{When: call.Stop, Stamp: txn.Tree.stamp + 1}
	if !txn.ValidNodeEnd(start, stop) {
		return nil
	}

	duration := call.Stop.Sub(call.Start)
	if call.AsyncContext == "" {
		txn.RootKidsDuration += duration
	}

	domain := extractDomain(call.URL)

	txn.UnscopedMetrics.Add("External/all", duration, duration, Forced)

	var traceName string
	if call.CAT.present() {
		txn.UnscopedMetrics.Add("External/"+domain+"/all", duration, 0, Unforced)
		txn.UnscopedMetrics.Add(fmt.Sprintf("ExternalApp/%s/%s/all", domain, call.CAT.ID), duration, 0, Unforced)
		traceName = fmt.Sprintf("ExternalTransaction/%s/%s/%s", domain, call.CAT.ID, call.CAT.TxnName)
		txn.ScopedMetrics.Add(traceName, duration, duration, Unforced)
	} else {
		traceName = "External/" + domain + "/all"
		txn.ScopedMetrics.Add(traceName, duration, duration, Unforced)
	}

	if call.DoRollup {
		// A rollup candidate may only absorb this call if it is still the
		// most recently saved node transaction-wide: if anything else was
		// saved in between (a custom segment, a datastore call, another
		// external call under a different name), last no longer points at
		// it and the collapse is refused (original_source/axiom/
		// node_external.c, nr_txn_node_rollup, via txn->last_added).
		if last := txn.lastAddedSegment; last != nil &&
			last.Type == SegmentTypeExternal &&
			last.NameIndex == txn.Tree.Strings.Add(traceName) {
			// Both stamps move forward so a third adjacent call still
			// sees a stop-start delta consistent with "nothing saved in
			// between" (node_external.c:77-78).
			last.Start.Stamp = txn.Tree.nextStamp()
			last.Stop = TxnTime{When: call.Stop, Stamp: txn.Tree.nextStamp()}
			last.Count++
			txn.lastAddedSegment = last
			return last
		}
	}

	seg := txn.Tree.Start(call.Start, nil, call.AsyncContext)
	txn.Tree.SetTiming(seg, call.Start, call.Stop.Sub(call.Start))
	seg.Type = SegmentTypeExternal
	txn.Tree.SetName(seg, traceName)

	ext := ExternalAttributes{
		URI:       cleanURL(call.URL),
		Library:   call.Library,
		Procedure: call.Procedure,
	}
	if call.CAT != nil {
		ext.TransactionGUID = call.CAT.GUID
	}
	seg.Typed.SetExternal(ext)

	txn.Tree.End(seg, call.Stop)
	txn.lastAddedSegment = seg
	return seg
}

// extractDomain pulls the host out of a (possibly malformed) URL,
// stripping query/fragment/params, and falls back to "<unknown>" on
// any failure or pathological length (spec §4.6.2 step 3).
func extractDomain(rawURL string) string {
	const maxDomainLen = 255
	cleaned := cleanURL(rawURL)
	u, err := url.Parse(cleaned)
	if err != nil || u.Host == "" {
		return "<unknown>"
	}
	host := u.Hostname()
	if host == "" || len(host) > maxDomainLen {
		return "<unknown>"
	}
	return host
}

// cleanURL strips query parameters and fragments (spec §4.6.2 step 3
// and step 6): everything from the first '?', '#', or ';' onward is
// removed.
func cleanURL(rawURL string) string {
	for _, cut := range []string{"?", "#", ";"} {
		if idx := strings.Index(rawURL, cut); idx >= 0 {
			rawURL = rawURL[:idx]
		}
	}
	return rawURL
}
