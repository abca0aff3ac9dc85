// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "encoding/json"

// rootWrapper is the fixed, uninterned "ROOT" node every trace payload
// carries around the actual transaction-name node (spec §6.2).
type rootWrapper struct {
	DurationMs float64
	Inner      *traceNode
}

func (r rootWrapper) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		0,
		r.DurationMs,
		"ROOT",
		map[string]any{},
		[]*traceNode{r.Inner},
	})
}

// tracePayloadBody is the first element of the two-element outer
// array (spec §6.2).
type tracePayloadBody struct {
	Timestamp        float64
	RequestParams    map[string]any
	CustomParams     map[string]any
	Root             rootWrapper
	AgentAttributes  map[string]any
	UserAttributes   map[string]any
	Intrinsics       map[string]any
}

func (b tracePayloadBody) MarshalJSON() ([]byte, error) {
	attrs := map[string]any{}
	if len(b.AgentAttributes) > 0 {
		attrs["agentAttributes"] = b.AgentAttributes
	}
	if len(b.UserAttributes) > 0 {
		attrs["userAttributes"] = b.UserAttributes
	}
	if len(b.Intrinsics) > 0 {
		attrs["intrinsics"] = b.Intrinsics
	}
	return json.Marshal([]any{
		b.Timestamp,
		b.RequestParams,
		b.CustomParams,
		b.Root,
		attrs,
	})
}

// BuildTracePayload renders the complete trace JSON array of spec
// §6.2: a two-element array of [body, internedStringTable].
func (txn *Txn) BuildTracePayload(limit int) ([]byte, error) {
	inner := txn.BuildTraceTree(limit)
	durationMs := inner.StopMs

	body := tracePayloadBody{
		RequestParams:   map[string]any{},
		CustomParams:    map[string]any{},
		Root:            rootWrapper{DurationMs: durationMs, Inner: inner},
		AgentAttributes: map[string]any{},
		UserAttributes:  toAnyMap(txn.TraceAttributes),
		Intrinsics:      txn.Intrinsics,
	}

	payload := []any{body, txn.Tree.Strings.Strings()}
	return json.Marshal(payload)
}

func toAnyMap(attrs UserAttributes) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
