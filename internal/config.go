// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "time"

// RecordSQL selects how much of a datastore call's SQL text is
// captured (spec §6.1).
type RecordSQL int

const (
	RecordSQLOff RecordSQL = iota
	RecordSQLObfuscated
	RecordSQLRaw
)

// Options is the per-transaction configuration record consumed at
// begin (spec §6.1). All booleans default false unless noted.
type Options struct {
	CustomEventsEnabled  bool
	SyntheticsEnabled    bool
	InstanceReporting    bool
	DatabaseNameReporting bool
	ErrorCollectorEnabled bool
	ErrorEventsEnabled   bool
	RequestParamsEnabled bool
	AutorumEnabled       bool
	AnalyticsEventsEnabled bool

	TTEnabled      bool
	ExplainPlanEnabled bool
	RecordSQL      RecordSQL
	SlowSQLEnabled bool

	ApdexT time.Duration

	TTThreshold   time.Duration
	TTIsApdexF    bool
	EPThreshold   time.Duration
	SSThreshold   time.Duration

	CrossProcessEnabled bool

	AllowRawExceptionMessages bool
	CustomParametersEnabled   bool
	DistributedTracingEnabled bool
	SpanEventsEnabled         bool

	HighSecurity bool
}

// Copy returns a shallow copy of o, used at transaction begin before
// the security-policy join mutates fields (spec §4.1).
func (o Options) Copy() Options { return o }

// tribool mirrors a (Enabled, SetByUser) pair from a security-policies
// reply: SetByUser=false means "unset", leaving local config untouched
// (spec §4.1, SPEC_FULL §3.7).
type tribool struct {
	Enabled   bool
	SetByUser bool
}

// SecurityPolicies is the optional, monotone-restrictive override set
// exchanged at connect time (spec §4.1, SPEC_FULL §3.7 and §4.1.1).
type SecurityPolicies struct {
	RecordSQL              tribool
	AllowRawExceptionMessages tribool
	CustomEvents            tribool
	CustomParameters        tribool
	CollectAnalyticsEvents  tribool
	CollectCustomEvents     tribool
	CollectTraces           tribool
	CollectErrors           tribool
	CollectErrorEvents      tribool
}

// Join applies the security-policy overrides to opts in place,
// following the ordered, monotone-restrictive rules of spec §4.1 and
// SPEC_FULL §4.1.1: a policy can only disable or obfuscate, never
// upgrade, and only applies when SetByUser is true.
func (sp SecurityPolicies) Join(opts *Options) {
	if sp.RecordSQL.SetByUser {
		if !sp.RecordSQL.Enabled {
			opts.RecordSQL = RecordSQLOff
		} else if opts.RecordSQL == RecordSQLRaw {
			opts.RecordSQL = RecordSQLObfuscated
		}
	}
	if sp.AllowRawExceptionMessages.SetByUser && !sp.AllowRawExceptionMessages.Enabled {
		opts.AllowRawExceptionMessages = false
	}
	if sp.CustomEvents.SetByUser && !sp.CustomEvents.Enabled {
		opts.CustomEventsEnabled = false
	}
	if sp.CustomParameters.SetByUser && !sp.CustomParameters.Enabled {
		opts.CustomParametersEnabled = false
	}
	if sp.CollectAnalyticsEvents.SetByUser && !sp.CollectAnalyticsEvents.Enabled {
		opts.AnalyticsEventsEnabled = false
	}
	if sp.CollectCustomEvents.SetByUser && !sp.CollectCustomEvents.Enabled {
		opts.CustomEventsEnabled = false
	}
	if sp.CollectTraces.SetByUser && !sp.CollectTraces.Enabled {
		opts.TTEnabled = false
		opts.ExplainPlanEnabled = false
		opts.SlowSQLEnabled = false
	}
	if sp.CollectErrors.SetByUser && !sp.CollectErrors.Enabled {
		opts.ErrorCollectorEnabled = false
	}
	if sp.CollectErrorEvents.SetByUser && !sp.CollectErrorEvents.Enabled {
		opts.ErrorEventsEnabled = false
	}
}

// SegmentTermsRule names a compiled segment-terms whitelist tied to a
// required URL prefix (spec §4.5 step 6).
type SegmentTermsRule = SegmentTerm

// ConnectReply carries the server-controlled configuration a
// transaction joins against at begin (spec §4.1, SPEC_FULL §3.7).
type ConnectReply struct {
	ApdexThresholdSeconds float64
	KeyTxnApdex           map[string]float64

	URLRules     RuleSet
	TxnNameRules RuleSet
	SegmentTerms []SegmentTermsRule

	TrustedAccountKey string
	AccountID         string
	PrimaryAppID      string
	TraceIDGenerator  *TraceIDGenerator

	SecurityPolicies SecurityPolicies
}

// ConnectReplyDefaults returns a reply that lets a bare Application
// behave sensibly in tests: no rules, no key-txn overrides, and a
// fresh trace-id generator (spec §4.1, SPEC_FULL §3.7).
func ConnectReplyDefaults() *ConnectReply {
	return &ConnectReply{
		ApdexThresholdSeconds: 0.5,
		KeyTxnApdex:           make(map[string]float64),
		TrustedAccountKey:     "1",
		AccountID:             "1",
		PrimaryAppID:          "Unknown",
		TraceIDGenerator:      NewTraceIDGenerator(1),
	}
}
