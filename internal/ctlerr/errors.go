// Copyright 2024 The go-rulectl Authors
// This file is part of go-rulectl.
//
// go-rulectl is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-rulectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rulectl. If not, see <http://www.gnu.org/licenses/>.

// Package ctlerr defines the compiler's error taxonomy: ParseError,
// SemanticError, StateError, and ResourceError, each carrying the
// offending token and one of the host's legacy integer error codes so
// callers at the host boundary (§6) can translate back to them.
package ctlerr

import "fmt"

// ErrCode is the host's shared error-code enumeration.
type ErrCode int

const (
	ErrNone ErrCode = iota
	ErrRule
	ErrNumber
	ErrKeyword
	ErrName
	ErrDateTime
	ErrItems
	ErrMemory
)

func (c ErrCode) String() string {
	switch c {
	case ErrRule:
		return "ERR_RULE"
	case ErrNumber:
		return "ERR_NUMBER"
	case ErrKeyword:
		return "ERR_KEYWORD"
	case ErrName:
		return "ERR_NAME"
	case ErrDateTime:
		return "ERR_DATETIME"
	case ErrItems:
		return "ERR_ITEMS"
	case ErrMemory:
		return "ERR_MEMORY"
	default:
		return "ERR_NONE"
	}
}

// ParseError reports a malformed clause: unknown keyword, bad number,
// bad date/time, bad object name, or wrong token count.
type ParseError struct {
	Code  ErrCode
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s (token %q)", e.Code, e.Msg, e.Token)
}

// NewParseError builds a ParseError; format/args follow fmt.Sprintf.
func NewParseError(code ErrCode, token, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, Token: token, Msg: fmt.Sprintf(format, args...)}
}

// SemanticError reports a clause that parses but violates a type or
// range invariant: an action targeting the wrong link kind, a setting
// outside [0,1], a PID driver on a non-Setting attribute.
type SemanticError struct {
	Code  ErrCode
	Token string
	Msg   string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s: %s (token %q)", e.Code, e.Msg, e.Token)
}

func NewSemanticError(code ErrCode, token, format string, args ...interface{}) *SemanticError {
	return &SemanticError{Code: code, Token: token, Msg: fmt.Sprintf(format, args...)}
}

// StateError reports a clause keyword arriving in an FSM state that
// does not accept it (e.g. ELSE before THEN).
type StateError struct {
	Keyword string
	State   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: keyword %q is not valid from state %s", ErrRule, e.Keyword, e.State)
}

func NewStateError(keyword, state string) *StateError {
	return &StateError{Keyword: keyword, State: state}
}

// ResourceError reports allocation failure while growing the rule,
// premise, or action tables.
type ResourceError struct {
	Msg string
}

func (e *ResourceError) Error() string { return fmt.Sprintf("%s: %s", ErrMemory, e.Msg) }

func NewResourceError(format string, args ...interface{}) *ResourceError {
	return &ResourceError{Msg: fmt.Sprintf(format, args...)}
}

// Coder is implemented by every error type above so the host boundary
// can recover the legacy integer code without a type switch per kind.
type Coder interface {
	error
	HostCode() ErrCode
}

// HostCode implementations.
func (e *ParseError) HostCode() ErrCode    { return e.Code }
func (e *SemanticError) HostCode() ErrCode { return e.Code }
func (e *StateError) HostCode() ErrCode    { return ErrRule }
func (e *ResourceError) HostCode() ErrCode { return ErrMemory }
