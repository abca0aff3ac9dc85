// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package agent

import "github.com/tracehouse/apm-agent-core/internal"

// Error gives full control over a recorded error's message, class, and
// attributes, for callers who want more than NoticeError's default
// extraction from a plain error value.
type Error struct {
	Message    string
	Class      string
	Attributes map[string]interface{}
}

func (e Error) Error() string { return e.Message }

// ErrorClass lets NoticeError recognize an Error without a type
// assertion on the concrete type.
func (e Error) ErrorClass() string { return e.Class }

// ErrorAttributes lets NoticeError recognize an Error without a type
// assertion on the concrete type.
func (e Error) ErrorAttributes() map[string]interface{} { return e.Attributes }

// classer and attributer let NoticeError pull a class name and extra
// attributes from any error type that opts in, not just agent.Error.
type classer interface{ ErrorClass() string }
type attributer interface{ ErrorAttributes() map[string]interface{} }

func errorClassOf(err error) string {
	if c, ok := err.(classer); ok {
		if class := c.ErrorClass(); class != "" {
			return class
		}
	}
	return "error"
}

func errorAttributesOf(err error) internal.UserAttributes {
	if a, ok := err.(attributer); ok {
		return internal.UserAttributes(a.ErrorAttributes())
	}
	return nil
}
