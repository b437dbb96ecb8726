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

//go:build !integration

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errRuleTable = errors.New("rule table has errors")

type tableError struct {
	failed []string
}

func (e *tableError) Error() string   { return fmt.Sprintf("%d rules failed", len(e.failed)) }
func (e *tableError) HTTPStatus() int { return http.StatusServiceUnavailable }
func (e *tableError) Code() string    { return "rule_table_invalid" }
func (e *tableError) Details() any    { return e.failed }

func TestStatusCodeDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		details any
	}{
		{"plain", errRuleTable, http.StatusInternalServerError, "", nil},
		{"with status", WithStatus(errRuleTable, http.StatusNotFound), http.StatusNotFound, "", nil},
		{"with code", WithCode(errRuleTable, "route_not_found"), http.StatusInternalServerError, "route_not_found", nil},
		{"nested wrappers", WithCode(WithStatus(errRuleTable, http.StatusNotImplemented), "no_invoker"), http.StatusNotImplemented, "no_invoker", nil},
		{"typed", &tableError{failed: []string{"blog/:id"}}, http.StatusServiceUnavailable, "rule_table_invalid", []string{"blog/:id"}},
		{"typed behind fmt wrap", fmt.Errorf("freeze: %w", &tableError{}), http.StatusServiceUnavailable, "rule_table_invalid", []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.status, StatusOf(tt.err))

			code, ok := CodeOf(tt.err)
			assert.Equal(t, tt.code != "", ok)
			assert.Equal(t, tt.code, code)

			details, ok := DetailsOf(tt.err)
			assert.Equal(t, tt.details != nil, ok)
			if tt.details != nil {
				assert.Equal(t, tt.details, details)
			}
		})
	}
}

func TestWrappersKeepIdentity(t *testing.T) {
	t.Parallel()

	err := WithCode(WithStatus(errRuleTable, http.StatusNotFound), "x")
	assert.ErrorIs(t, err, errRuleTable)
	assert.Equal(t, errRuleTable.Error(), err.Error())

	assert.Equal(t, "Not Found", WithStatus(nil, http.StatusNotFound).Error())
	assert.Equal(t, "x", WithCode(nil, "x").Error())
}
