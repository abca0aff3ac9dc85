// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"errors"
	"testing"
)

func TestErrorClassOfDefaultsWhenUnclassed(t *testing.T) {
	if got := errorClassOf(errors.New("plain")); got != "error" {
		t.Errorf("unclassed errors should default to %q, got %q", "error", got)
	}
}

func TestErrorClassOfUsesAgentErrorClass(t *testing.T) {
	e := Error{Message: "boom", Class: "PaymentFailure"}
	if got := errorClassOf(e); got != "PaymentFailure" {
		t.Errorf("expected the custom class, got %q", got)
	}
}

func TestErrorClassOfFallsBackWhenClassEmpty(t *testing.T) {
	e := Error{Message: "boom"}
	if got := errorClassOf(e); got != "error" {
		t.Errorf("an empty Class should fall back to the default, got %q", got)
	}
}

func TestErrorAttributesOfNilForPlainError(t *testing.T) {
	if got := errorAttributesOf(errors.New("plain")); got != nil {
		t.Errorf("plain errors should yield nil attributes, got %v", got)
	}
}

func TestErrorAttributesOfUsesAgentErrorAttributes(t *testing.T) {
	e := Error{Message: "boom", Attributes: map[string]interface{}{"order_id": 42}}
	got := errorAttributesOf(e)
	if got["order_id"] != 42 {
		t.Errorf("expected the custom attributes to carry through, got %v", got)
	}
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	var err error = Error{Message: "boom"}
	if err.Error() != "boom" {
		t.Error("Error.Error() should return Message")
	}
}
