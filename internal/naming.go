// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"regexp"
	"sort"
	"strings"
)

// PathType selects which literal prefix the naming pipeline uses (spec
// §4.5 step 2).
type PathType int

const (
	PathUnknown PathType = iota
	PathUri
	PathAction
	PathFunction
	PathCustom
)

// RuleOutcome is the three-valued result of applying one rule, or a
// whole rule set, to a name (spec §4.5.1, §7).
type RuleOutcome int

const (
	RuleUnchanged RuleOutcome = iota
	RuleChanged
	RuleIgnore
)

// Rule is one entry in a URL-rules or transaction-rules set, grounded
// on nr_rules_private.h's nrrules_t (SPEC_FULL §4.5.1).
type Rule struct {
	MatchExpression *regexp.Regexp
	Replacement     string
	Ignore          bool
	EvalOrder       int
	TerminateChain  bool
	EachSegment     bool
	ReplaceAll      bool
}

// RuleSet is an ordered collection of Rules, evaluated lowest
// EvalOrder first.
type RuleSet []Rule

// sortedCopy returns rs sorted by EvalOrder ascending (stable), so the
// caller's own slice order is never mutated.
func (rs RuleSet) sortedCopy() RuleSet {
	out := make(RuleSet, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EvalOrder < out[j].EvalOrder })
	return out
}

func (r Rule) apply(name string) (string, bool) {
	if r.EachSegment {
		segs := strings.Split(name, "/")
		changed := false
		for i, seg := range segs {
			replaced, did := r.applyToString(seg)
			if did {
				changed = true
				segs[i] = replaced
			}
		}
		return strings.Join(segs, "/"), changed
	}
	return r.applyToString(name)
}

func (r Rule) applyToString(s string) (string, bool) {
	if !r.MatchExpression.MatchString(s) {
		return s, false
	}
	if r.ReplaceAll {
		return r.MatchExpression.ReplaceAllString(s, r.Replacement), true
	}
	loc := r.MatchExpression.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	replaced := r.MatchExpression.ReplaceAllString(s[loc[0]:loc[1]], r.Replacement)
	return s[:loc[0]] + replaced + s[loc[1]:], true
}

// Apply runs the whole rule set against name in EvalOrder, honoring
// Ignore and TerminateChain (SPEC_FULL §4.5.1 steps 1-6).
func (rs RuleSet) Apply(name string) (string, RuleOutcome) {
	ordered := rs.sortedCopy()
	changedAny := false
	for _, r := range ordered {
		result, matched := r.apply(name)
		if !matched {
			continue
		}
		if r.Ignore {
			return name, RuleIgnore
		}
		name = result
		changedAny = true
		if r.TerminateChain {
			break
		}
	}
	if changedAny {
		return name, RuleChanged
	}
	return name, RuleUnchanged
}

// SegmentTerm whitelists the path segments following Prefix; any
// segment not in Whitelist is replaced with "*" and consecutive "*"
// runs collapse to one (spec §4.5 step 6, SPEC_FULL §4.5.1).
type SegmentTerm struct {
	Prefix    string
	Whitelist map[string]bool
}

// ApplySegmentTerms finds the first term whose Prefix matches name and
// whitelists its trailing segments; if no term's prefix matches, name
// is returned unchanged.
func ApplySegmentTerms(name string, terms []SegmentTerm) string {
	for _, term := range terms {
		if !strings.HasPrefix(name, term.Prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, term.Prefix)
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			return name
		}
		segs := strings.Split(rest, "/")
		for i, seg := range segs {
			if !term.Whitelist[seg] {
				segs[i] = "*"
			}
		}
		collapsed := collapseStars(segs)
		return strings.TrimSuffix(term.Prefix, "/") + "/" + strings.Join(collapsed, "/")
	}
	return name
}

func collapseStars(segs []string) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		if s == "*" && len(out) > 0 && out[len(out)-1] == "*" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// prefixFor returns the literal prefix for (background, pathType) per
// spec §4.5 step 2, and the fallback path used when path is empty
// ("unknown" / the fixed Unknown-type literal).
func prefixFor(background bool, pathType PathType) (prefix string, unknownLiteral bool) {
	base := "WebTransaction/"
	if background {
		base = "OtherTransaction/php/"
		if pathType != PathUnknown {
			base = "OtherTransaction/"
		}
	}
	switch pathType {
	case PathUri:
		if background {
			return "OtherTransaction/php/", false
		}
		return "WebTransaction/Uri/", false
	case PathAction:
		return base + "Action/", false
	case PathFunction:
		return base + "Function/", false
	case PathCustom:
		return base + "Custom/", false
	default: // PathUnknown
		if background {
			return "OtherTransaction/php/", true
		}
		return "WebTransaction/Uri/", true
	}
}

// FreezeName implements the naming pipeline of spec §4.5. path is the
// raw URI/action/function/custom identifier; an empty path is treated
// as absent. It returns RuleIgnore when a URL or transaction rule
// ignored the name (the caller must then set status.ignore and abandon
// naming); otherwise it returns the frozen name with RuleUnchanged,
// whether or not rules rewrote it.
func FreezeName(background bool, pathType PathType, path string, urlRules, txnRules RuleSet, segmentTerms []SegmentTerm) (string, RuleOutcome) {
	prefix, unknown := prefixFor(background, pathType)

	if unknown {
		return prefix + "<unknown>", RuleUnchanged
	}

	if (pathType == PathUri || pathType == PathCustom) && !background && path != "" {
		result, outcome := urlRules.Apply(path)
		if outcome == RuleIgnore {
			return "", RuleIgnore
		}
		path = result
	}

	effectivePath := path
	if effectivePath == "" {
		effectivePath = "unknown"
	}
	// A leading '/' is dropped so it does not double the prefix's own.
	name := prefix + strings.TrimPrefix(effectivePath, "/")

	name, outcome := txnRules.Apply(name)
	if outcome == RuleIgnore {
		return "", RuleIgnore
	}

	name = ApplySegmentTerms(name, segmentTerms)
	return name, RuleUnchanged
}
