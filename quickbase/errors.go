/*
Copyright 2023 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package quickbase

import (
	"errors"
	"fmt"

	"github.com/gravitational/trace"
)

// ErrorKind tells which step of an operation failed.
type ErrorKind string

const (
	// KindAuth is a failed temporary token fetch.
	KindAuth ErrorKind = "auth"
	// KindRequest is a failed primary call: a transport error or a non-2xx status.
	KindRequest ErrorKind = "request"
	// KindParse is a response missing the expected structure.
	KindParse ErrorKind = "parse"
	// KindAPI is a legacy XML response carrying a non-zero errcode.
	KindAPI ErrorKind = "api"
)

// Error is the failure result of every client operation.
type Error struct {
	Kind ErrorKind
	// StatusCode is the HTTP status, zero for transport and parse failures.
	StatusCode int
	// Code is the legacy API errcode, only set for KindAPI.
	Code    int
	Message string
	Err     error
}

// Error implements error
func (e *Error) Error() string {
	msg := fmt.Sprintf("quickbase %s failure", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (errcode %d)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying transport or decoding error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, status int, err error, format string, args ...interface{}) error {
	return trace.WrapWithMessage(&Error{
		Kind:       kind,
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
		Err:        err,
	}, "quickbase %s failure", kind)
}

// AsError extracts the *Error from an error chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	if qbErr, ok := trace.Unwrap(err).(*Error); ok {
		return qbErr, true
	}
	var qbErr *Error
	if errors.As(err, &qbErr) {
		return qbErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	if qbErr, ok := AsError(err); ok {
		return qbErr.StatusCode
	}
	return 0
}

func isKind(err error, kind ErrorKind) bool {
	qbErr, ok := AsError(err)
	return ok && qbErr.Kind == kind
}

// IsAuthFailure reports whether err is a failed temporary token fetch.
func IsAuthFailure(err error) bool { return isKind(err, KindAuth) }

// IsRequestFailure reports whether err is a failed primary call.
func IsRequestFailure(err error) bool { return isKind(err, KindRequest) }

// IsParseFailure reports whether err is a malformed response.
func IsParseFailure(err error) bool { return isKind(err, KindParse) }

// IsAPIFailure reports whether err is a legacy API error code.
func IsAPIFailure(err error) bool { return isKind(err, KindAPI) }
