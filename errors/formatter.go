// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"errors"
	"net/http"
)

// Formatter converts an error into the parts of an HTTP response.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response. Body is meant to be encoded as
// JSON.
type Response struct {
	Status      int
	ContentType string
	Body        any
	// Headers are added to the response before the status is written.
	Headers http.Header
}

// ErrorType is implemented by errors that carry their own HTTP status.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails is implemented by errors with structured details, such as
// the list of failed rules of a route table.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode is implemented by errors with a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// StatusOf returns the status declared by err or one of the errors it
// wraps, or 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// CodeOf returns the code declared by err or one of the errors it wraps.
func CodeOf(err error) (string, bool) {
	var coded ErrorCode
	if errors.As(err, &coded) {
		return coded.Code(), true
	}
	return "", false
}

// DetailsOf returns the details declared by err or one of the errors it
// wraps.
func DetailsOf(err error) (any, bool) {
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		return detailed.Details(), true
	}
	return nil, false
}

// WithStatus attaches an HTTP status to err.
//
//	return errors.WithStatus(router.ErrNoInvoker, http.StatusNotImplemented)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

// WithCode attaches a machine-readable code to err.
func WithCode(err error, code string) error {
	return &codeError{err: err, code: code}
}

type codeError struct {
	err  error
	code string
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.code
	}
	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }
func (e *codeError) Code() string  { return e.code }
