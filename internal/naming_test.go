// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"regexp"
	"testing"
)

func TestRuleSetAppliesInEvalOrderNotSliceOrder(t *testing.T) {
	rs := RuleSet{
		{MatchExpression: regexp.MustCompile(`b`), Replacement: "B", EvalOrder: 2},
		{MatchExpression: regexp.MustCompile(`a`), Replacement: "A", EvalOrder: 1},
	}
	got, outcome := rs.Apply("ab")
	if outcome != RuleChanged {
		t.Fatal("expected a change")
	}
	if got != "AB" {
		t.Errorf("rules should apply in EvalOrder, got %q", got)
	}
}

func TestRuleTerminateChainStopsLaterRules(t *testing.T) {
	rs := RuleSet{
		{MatchExpression: regexp.MustCompile(`a`), Replacement: "A", EvalOrder: 1, TerminateChain: true},
		{MatchExpression: regexp.MustCompile(`A`), Replacement: "Z", EvalOrder: 2},
	}
	got, _ := rs.Apply("a")
	if got != "A" {
		t.Errorf("TerminateChain must prevent the second rule from running, got %q", got)
	}
}

func TestRuleIgnoreAbortsWholeSet(t *testing.T) {
	rs := RuleSet{
		{MatchExpression: regexp.MustCompile(`secret`), Ignore: true, EvalOrder: 1},
		{MatchExpression: regexp.MustCompile(`.*`), Replacement: "matched-everything", EvalOrder: 2},
	}
	got, outcome := rs.Apply("secret/path")
	if outcome != RuleIgnore {
		t.Fatal("expected RuleIgnore")
	}
	if got != "secret/path" {
		t.Error("an ignored name must be returned unchanged", got)
	}
}

func TestRuleEachSegmentAppliesPerPathSegment(t *testing.T) {
	r := Rule{MatchExpression: regexp.MustCompile(`^\d+$`), Replacement: "*", EachSegment: true, ReplaceAll: true}
	rs := RuleSet{r}
	got, outcome := rs.Apply("users/123/orders/456")
	if outcome != RuleChanged {
		t.Fatal("expected a change")
	}
	if got != "users/*/orders/*" {
		t.Errorf("EachSegment should replace numeric segments independently, got %q", got)
	}
}

func TestApplySegmentTermsWhitelistsTrailingSegments(t *testing.T) {
	terms := []SegmentTerm{
		{Prefix: "WebTransaction/Uri", Whitelist: map[string]bool{"users": true, "orders": true}},
	}
	got := ApplySegmentTerms("WebTransaction/Uri/users/123/orders/456", terms)
	if got != "WebTransaction/Uri/users/*/orders/*" {
		t.Errorf("unexpected segment-term result: %q", got)
	}
}

func TestApplySegmentTermsCollapsesConsecutiveStars(t *testing.T) {
	terms := []SegmentTerm{
		{Prefix: "WebTransaction/Uri", Whitelist: map[string]bool{}},
	}
	got := ApplySegmentTerms("WebTransaction/Uri/a/b/c", terms)
	if got != "WebTransaction/Uri/*" {
		t.Errorf("consecutive stars must collapse to one, got %q", got)
	}
}

func TestApplySegmentTermsNoMatchingPrefixIsNoop(t *testing.T) {
	terms := []SegmentTerm{{Prefix: "WebTransaction/Action", Whitelist: map[string]bool{}}}
	got := ApplySegmentTerms("WebTransaction/Uri/a/b", terms)
	if got != "WebTransaction/Uri/a/b" {
		t.Error("no matching prefix should leave the name untouched", got)
	}
}

func TestFreezeNameUnknownPathTypeUsesLiteralUnknown(t *testing.T) {
	name, outcome := FreezeName(false, PathUnknown, "", nil, nil, nil)
	if outcome != RuleUnchanged {
		t.Fatal("unknown path must never be an ignore outcome")
	}
	if name != "WebTransaction/Uri/<unknown>" {
		t.Errorf("unexpected unknown-path name: %q", name)
	}
}

func TestFreezeNameBackgroundUsesOtherTransactionPrefix(t *testing.T) {
	name, _ := FreezeName(true, PathFunction, "DoWork", nil, nil, nil)
	if name != "OtherTransaction/Function/DoWork" {
		t.Errorf("unexpected background name: %q", name)
	}
}

func TestFreezeNameAppliesURLRulesOnlyToWebURIPaths(t *testing.T) {
	urlRules := RuleSet{
		{MatchExpression: regexp.MustCompile(`/\d+`), Replacement: "/*", EvalOrder: 1, ReplaceAll: true},
	}
	name, _ := FreezeName(false, PathUri, "/users/123", urlRules, nil, nil)
	if name != "WebTransaction/Uri/users/*" {
		t.Errorf("URL rules should have collapsed the numeric id, got %q", name)
	}
}

func TestFreezeNameEmptyPathFallsBackToUnknownLiteral(t *testing.T) {
	name, _ := FreezeName(false, PathAction, "", nil, nil, nil)
	if name != "WebTransaction/Action/unknown" {
		t.Errorf("empty path with a known PathType should use the literal 'unknown', got %q", name)
	}
}

func TestFreezeNameTxnRuleIgnoreAbandonsNaming(t *testing.T) {
	txnRules := RuleSet{
		{MatchExpression: regexp.MustCompile(`internal`), Ignore: true, EvalOrder: 1},
	}
	name, outcome := FreezeName(false, PathCustom, "internal/healthcheck", nil, txnRules, nil)
	if outcome != RuleIgnore {
		t.Fatal("expected RuleIgnore from the transaction-rules pass")
	}
	if name != "" {
		t.Error("an ignored freeze should not return a usable name", name)
	}
}
