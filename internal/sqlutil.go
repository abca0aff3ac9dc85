// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"regexp"
	"strings"
)

var (
	sqlOperationRegexp = regexp.MustCompile(`(?i)^\s*(select|insert|update|delete|call)\b`)
	sqlTableRegexp     = regexp.MustCompile(`(?i)\b(?:from|into|update|call)\s+` + "`" + `?([a-zA-Z_][a-zA-Z0-9_.]*)` + "`" + `?`)

	sqlNumberLiteral = regexp.MustCompile(`(?:\b\d+\.\d+\b|\b\d+\b)`)
	sqlStringLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
)

// ExtractOperationAndTable is the best-effort SQL heuristic of
// SPEC_FULL §4.6.3. It recognizes SELECT/INSERT/UPDATE/DELETE/CALL as
// the operation and the first identifier following
// FROM/INTO/UPDATE/CALL as the table (lower-cased). Anything it cannot
// recognize yields ("", "").
func ExtractOperationAndTable(sql string) (operation, table string) {
	if m := sqlOperationRegexp.FindStringSubmatch(sql); m != nil {
		operation = strings.ToLower(m[1])
	}
	if m := sqlTableRegexp.FindStringSubmatch(sql); m != nil {
		table = strings.ToLower(m[1])
	}
	return operation, table
}

// ObfuscateSQL replaces string and numeric literals with "?", the
// contract-only obfuscation described in spec §4.6.1 step 9 /
// SPEC_FULL §4.6.3 ("SQL lexing is explicitly out of scope").
func ObfuscateSQL(sql string) string {
	out := sqlStringLiteral.ReplaceAllString(sql, "?")
	out = sqlNumberLiteral.ReplaceAllString(out, "?")
	return out
}
