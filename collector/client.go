// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package collector implements the HTTP transport that ships harvested
// data to a New Relic-compatible collector, standing in for the
// gRPC/protobuf Infinite Tracing observer the teacher ships: the wire
// format here is the same JSON-over-HTTP-with-gzip contract the
// teacher's own command names (metric_data, span_event_data, ...)
// describe (spec §6.6).
package collector

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	protocolVersion = "17"
	userAgent       = "apm-agent-core/collector"

	// Command names used in collector communication, matching the
	// teacher's internal/collector_remnants.go.
	CmdMetrics      = "metric_data"
	CmdCustomEvents = "custom_event_data"
	CmdSpanEvents   = "span_event_data"
	CmdTxnTraces    = "transaction_sample_data"
	CmdSlowSQLs     = "sql_trace_data"
)

// Sender is the contract agent.Harvest depends on to ship a command's
// body to the collector, keeping the collector a true external
// collaborator (spec §6.6).
type Sender interface {
	Send(ctx context.Context, cmd string, body []byte) ([]byte, error)
}

// rpmException mirrors the {"exception": {...}} envelope a collector
// error response carries.
type rpmException struct {
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

func (e *rpmException) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}

// Client implements Sender over HTTP with gzip-compressed JSON request
// bodies (spec §6.6, grounded on the teacher's collectorRequestInternal).
type Client struct {
	Host    string
	License string
	RunID   string
	UseTLS  bool

	HTTPClient *http.Client
}

// NewClient builds a Client with a sane request timeout, matching the
// teacher's collectorTimeout.
func NewClient(host, license string) *Client {
	return &Client{
		Host:       host,
		License:    license,
		UseTLS:     true,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) commandURL(cmd string) string {
	var u url.URL
	u.Host = c.Host
	u.Path = "agent_listener/invoke_raw_method"
	if c.UseTLS {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}

	q := url.Values{}
	q.Set("marshal_format", "json")
	q.Set("protocol_version", protocolVersion)
	q.Set("method", cmd)
	q.Set("license_key", c.License)
	if c.RunID != "" {
		q.Set("run_id", c.RunID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Send gzips body and POSTs it to the collector command endpoint,
// returning the decoded return_value payload on success.
func (c *Client) Send(ctx context.Context, cmd string, body []byte) ([]byte, error) {
	compressed, err := gzipCompress(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.commandURL(cmd), bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "identity, deflate")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("User-Agent", userAgent)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusRequestEntityTooLarge:
		return nil, fmt.Errorf("collector: payload too large")
	case http.StatusUnsupportedMediaType:
		return nil, fmt.Errorf("collector: unsupported media type")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collector: unexpected status code %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return parseReturnValue(raw)
}

func gzipCompress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseReturnValue(raw []byte) ([]byte, error) {
	var envelope struct {
		ReturnValue json.RawMessage `json:"return_value"`
		Exception   *rpmException   `json:"exception"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if envelope.Exception != nil {
		return nil, envelope.Exception
	}
	return envelope.ReturnValue, nil
}
