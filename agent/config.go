// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"time"

	"github.com/tracehouse/apm-agent-core/internal"
)

// Config carries per-Application settings (spec §6.1, §1.1's ambient
// configuration layer). It is built by applying a sequence of
// ConfigOption functions over defaultConfig, mirroring the teacher's
// functional-options pattern.
type Config struct {
	AppName string
	License string
	Logger  Logger
	Enabled bool
	Labels  map[string]string

	HighSecurity bool

	CustomInsightsEvents struct {
		Enabled          bool
		MaxSamplesStored int
	}
	TransactionEvents struct {
		Enabled          bool
		MaxSamplesStored int
	}
	ErrorCollector struct {
		Enabled           bool
		CaptureEvents     bool
		IgnoreStatusCodes []int
		RecordPanics      bool
	}
	TransactionTracer struct {
		Enabled   bool
		Threshold struct {
			IsApdexFailing bool
			Duration       time.Duration
		}
		RecordSQL   internal.RecordSQL
		SlowSQL     bool
		ExplainPlan bool
	}
	DistributedTracer struct {
		Enabled bool
	}
	SpanEvents struct {
		Enabled bool
	}
	CrossApplicationTracer struct {
		Enabled bool
	}

	InstanceReporting     bool
	DatabaseNameReporting bool
	RequestParamsEnabled  bool

	ApdexT      time.Duration
	EPThreshold time.Duration
	SSThreshold time.Duration

	Host  string
	Error error
}

func defaultConfig() Config {
	c := Config{
		Enabled: true,
		Logger:  NewNullLogger(),
		Labels:  make(map[string]string),
		ApdexT:  500 * time.Millisecond,
	}
	c.CustomInsightsEvents.Enabled = true
	c.CustomInsightsEvents.MaxSamplesStored = internal.DefaultCustomEventLimit
	c.TransactionEvents.Enabled = true
	c.TransactionEvents.MaxSamplesStored = 10000
	c.ErrorCollector.Enabled = true
	c.ErrorCollector.CaptureEvents = true
	c.TransactionTracer.Enabled = true
	c.TransactionTracer.RecordSQL = internal.RecordSQLObfuscated
	c.TransactionTracer.SlowSQL = true
	c.TransactionTracer.ExplainPlan = true
	c.DistributedTracer.Enabled = true
	c.SpanEvents.Enabled = true
	c.InstanceReporting = true
	c.DatabaseNameReporting = true
	c.RequestParamsEnabled = true
	c.EPThreshold = 500 * time.Millisecond
	c.SSThreshold = 500 * time.Millisecond
	return c
}

// toOptions projects a Config down to the internal.Options record
// consumed at transaction begin (spec §4.1).
func (c Config) toOptions() internal.Options {
	return internal.Options{
		CustomEventsEnabled:       c.CustomInsightsEvents.Enabled,
		InstanceReporting:         c.InstanceReporting,
		DatabaseNameReporting:     c.DatabaseNameReporting,
		ErrorCollectorEnabled:     c.ErrorCollector.Enabled,
		ErrorEventsEnabled:        c.ErrorCollector.CaptureEvents,
		RequestParamsEnabled:      c.RequestParamsEnabled,
		AnalyticsEventsEnabled:    c.TransactionEvents.Enabled,
		TTEnabled:                 c.TransactionTracer.Enabled,
		ExplainPlanEnabled:        c.TransactionTracer.ExplainPlan,
		RecordSQL:                 c.TransactionTracer.RecordSQL,
		SlowSQLEnabled:            c.TransactionTracer.SlowSQL,
		ApdexT:                    c.ApdexT,
		TTThreshold:               c.TransactionTracer.Threshold.Duration,
		TTIsApdexF:                c.TransactionTracer.Threshold.IsApdexFailing,
		EPThreshold:               c.EPThreshold,
		SSThreshold:               c.SSThreshold,
		CrossProcessEnabled:       c.CrossApplicationTracer.Enabled,
		AllowRawExceptionMessages: !c.HighSecurity,
		CustomParametersEnabled:   true,
		DistributedTracingEnabled: c.DistributedTracer.Enabled,
		SpanEventsEnabled:         c.SpanEvents.Enabled,
		HighSecurity:              c.HighSecurity,
	}
}

// ConfigOption configures a Config. Options are applied in order, so
// a later option may overwrite an earlier one (spec §1.1, grounded on
// the teacher's newrelic.ConfigOption pattern).
type ConfigOption func(*Config)

// ConfigEnabled sets whether the agent is enabled.
func ConfigEnabled(enabled bool) ConfigOption {
	return func(c *Config) { c.Enabled = enabled }
}

// ConfigAppName sets the application name.
func ConfigAppName(name string) ConfigOption {
	return func(c *Config) { c.AppName = name }
}

// ConfigLicense sets the collector license key.
func ConfigLicense(license string) ConfigOption {
	return func(c *Config) { c.License = license }
}

// ConfigLogger sets the agent's logger.
func ConfigLogger(l Logger) ConfigOption {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// ConfigDistributedTracerEnabled toggles distributed tracing.
func ConfigDistributedTracerEnabled(enabled bool) ConfigOption {
	return func(c *Config) { c.DistributedTracer.Enabled = enabled }
}

// ConfigHighSecurity toggles high-security mode, which monotonically
// restricts SQL capture and raw exception messages (spec §4.1.1).
func ConfigHighSecurity(enabled bool) ConfigOption {
	return func(c *Config) { c.HighSecurity = enabled }
}

// ConfigApdexThreshold sets the default apdex threshold.
func ConfigApdexThreshold(threshold time.Duration) ConfigOption {
	return func(c *Config) { c.ApdexT = threshold }
}
