// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tracehouse/apm-agent-core/internal"
)

// Sender is the contract a harvest cycle depends on to ship one
// command's JSON body to the collector. collector.Client satisfies
// this without agent importing the collector package, keeping the
// collector a true external collaborator (spec §6.6).
type Sender interface {
	Send(ctx context.Context, cmd string, body []byte) ([]byte, error)
}

// maxHarvestTraces bounds how many transaction trace payloads a single
// harvest cycle retains (the teacher keeps one regular trace per
// cycle; we keep a small handful to tolerate bursts).
const maxHarvestTraces = 5

// Harvestable is data a finished transaction can merge into the
// application's running Harvest (spec §6.6).
type Harvestable interface {
	MergeIntoHarvest(h *Harvest)
}

// Harvest accumulates metrics, events, and trace payloads across
// transactions between collector reporting cycles, grounded on the
// teacher's harvest.go merge/Ready/Payloads split, simplified to this
// module's single fixed-period cycle (spec §6.6).
type Harvest struct {
	mu sync.Mutex

	Metrics       *internal.MetricTable
	CustomEvents  []internal.CustomEvent
	SpanEvents    []internal.SpanEvent
	TracePayloads [][]byte

	maxCustomEvents int
	maxSpanEvents   int
}

func newHarvest(maxCustomEvents, maxSpanEvents int) *Harvest {
	return &Harvest{
		Metrics:         internal.NewMetricTable(internal.DefaultMetricLimit),
		maxCustomEvents: maxCustomEvents,
		maxSpanEvents:   maxSpanEvents,
	}
}

func (h *Harvest) mergeMetrics(mt *internal.MetricTable) {
	if mt == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Metrics.Merge(mt)
}

func (h *Harvest) mergeCustomEvents(events []internal.CustomEvent) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range events {
		if len(h.CustomEvents) >= h.maxCustomEvents {
			return
		}
		h.CustomEvents = append(h.CustomEvents, e)
	}
}

func (h *Harvest) mergeSpanEvents(events []internal.SpanEvent) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range events {
		if len(h.SpanEvents) >= h.maxSpanEvents {
			return
		}
		h.SpanEvents = append(h.SpanEvents, e)
	}
}

func (h *Harvest) mergeTracePayload(payload []byte) {
	if payload == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.TracePayloads) >= maxHarvestTraces {
		return
	}
	h.TracePayloads = append(h.TracePayloads, payload)
}

// Swap returns the data accumulated so far and resets the Harvest for
// the next cycle, mirroring the teacher's harvest.Ready split between
// "what's ready to send" and "what keeps accumulating".
func (h *Harvest) Swap() *Harvest {
	h.mu.Lock()
	defer h.mu.Unlock()
	ready := &Harvest{
		Metrics:       h.Metrics,
		CustomEvents:  h.CustomEvents,
		SpanEvents:    h.SpanEvents,
		TracePayloads: h.TracePayloads,
	}
	h.Metrics = internal.NewMetricTable(internal.DefaultMetricLimit)
	h.CustomEvents = nil
	h.SpanEvents = nil
	h.TracePayloads = nil
	return ready
}

// metricJSON is the [count, total, exclusive, min, max, sumSquares]
// tuple the collector expects per metric (spec §3.4).
type metricJSON struct {
	Name string
	Data [6]float64
}

func (m metricJSON) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{
		struct {
			Name string `json:"name"`
		}{m.Name},
		m.Data,
	})
}

func metricsJSON(runID string, harvestStart, harvestEnd time.Time, metrics *internal.MetricTable) ([]byte, error) {
	names := metrics.Names()
	data := make([]metricJSON, 0, len(names))
	for _, name := range names {
		count, total, exclusive, min, max, sumSquares, ok := metrics.Get(name)
		if !ok {
			continue
		}
		data = append(data, metricJSON{Name: name, Data: [6]float64{count, total, exclusive, min, max, sumSquares}})
	}
	return json.Marshal([]interface{}{runID, harvestStart.Unix(), harvestEnd.Unix(), data})
}

func customEventsJSON(runID string, events []internal.CustomEvent) ([]byte, error) {
	rows := make([]interface{}, 0, len(events))
	for _, e := range events {
		intrinsics := map[string]interface{}{
			"type":      e.EventType,
			"timestamp": e.Timestamp.Unix(),
		}
		rows = append(rows, [2]interface{}{intrinsics, toAnyMap(e.Attributes)})
	}
	return json.Marshal([]interface{}{runID, rows})
}

func spanEventsJSON(runID string, spans []internal.SpanEvent) ([]byte, error) {
	rows := make([]interface{}, 0, len(spans))
	for _, s := range spans {
		intrinsics := map[string]interface{}{
			"type":             "Span",
			"name":             s.Name,
			"category":         s.Category,
			"timestamp":        s.Timestamp,
			"duration":         s.Duration,
			"guid":             s.GUID,
			"parentId":         s.ParentID,
			"transactionId":    s.TransactionID,
			"traceId":          s.TraceID,
			"sampled":          s.Sampled,
			"priority":         float64(s.Priority),
			"externalUri":      s.ExternalURI,
			"datastore.component": s.DatastoreComponent,
		}
		rows = append(rows, [3]interface{}{intrinsics, toAnyMap(s.UserAttributes), map[string]interface{}{}})
	}
	return json.Marshal([]interface{}{runID, rows})
}

func toAnyMap(attrs internal.UserAttributes) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

// Send ships this harvest's metrics, custom events, span events, and
// trace payloads to sender, stopping at the first error (spec §6.6).
// runID identifies the agent run the data belongs to, as issued by a
// prior collector connect handshake.
func (h *Harvest) Send(ctx context.Context, sender Sender, runID string, harvestStart, harvestEnd time.Time) error {
	if body, err := metricsJSON(runID, harvestStart, harvestEnd, h.Metrics); err != nil {
		return err
	} else if _, err := sender.Send(ctx, "metric_data", body); err != nil {
		return err
	}

	if len(h.CustomEvents) > 0 {
		body, err := customEventsJSON(runID, h.CustomEvents)
		if err != nil {
			return err
		}
		if _, err := sender.Send(ctx, "custom_event_data", body); err != nil {
			return err
		}
	}

	if len(h.SpanEvents) > 0 {
		body, err := spanEventsJSON(runID, h.SpanEvents)
		if err != nil {
			return err
		}
		if _, err := sender.Send(ctx, "span_event_data", body); err != nil {
			return err
		}
	}

	for _, trace := range h.TracePayloads {
		if _, err := sender.Send(ctx, "transaction_sample_data", trace); err != nil {
			return err
		}
	}
	return nil
}
