// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import "testing"

func TestExtractOperationAndTableSelect(t *testing.T) {
	op, table := ExtractOperationAndTable("SELECT * FROM Users WHERE id = 1")
	if op != "select" {
		t.Error("unexpected operation", op)
	}
	if table != "users" {
		t.Error("unexpected table", table)
	}
}

func TestExtractOperationAndTableInsert(t *testing.T) {
	op, table := ExtractOperationAndTable("insert into `orders` (id) values (1)")
	if op != "insert" {
		t.Error("unexpected operation", op)
	}
	if table != "orders" {
		t.Error("backtick-quoted table should still be recognized", table)
	}
}

func TestExtractOperationAndTableUnrecognizedYieldsEmpty(t *testing.T) {
	op, table := ExtractOperationAndTable("BEGIN TRANSACTION")
	if op != "" || table != "" {
		t.Error("unrecognized statements must yield empty operation and table", op, table)
	}
}

func TestObfuscateSQLReplacesStringAndNumericLiterals(t *testing.T) {
	got := ObfuscateSQL("SELECT * FROM users WHERE name = 'bob' AND age > 21")
	want := "SELECT * FROM users WHERE name = ? AND age > ?"
	if got != want {
		t.Errorf("ObfuscateSQL() = %q, want %q", got, want)
	}
}

func TestObfuscateSQLHandlesDoubleQuotedStrings(t *testing.T) {
	got := ObfuscateSQL(`SELECT * FROM t WHERE x = "value"`)
	if got != `SELECT * FROM t WHERE x = ?` {
		t.Errorf("double-quoted literal should obfuscate, got %q", got)
	}
}

func TestObfuscateSQLLeavesIdentifiersAlone(t *testing.T) {
	got := ObfuscateSQL("SELECT col1 FROM table2")
	if got != "SELECT col1 FROM table2" {
		t.Errorf("identifiers with embedded digits must not be touched, got %q", got)
	}
}
