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
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RFC9457 formats errors as RFC 9457 problem details.
type RFC9457 struct {
	// BaseURL prefixes error codes to form the problem type URI. Errors
	// without a code get "about:blank".
	BaseURL string

	// StatusResolver overrides StatusOf.
	StatusResolver func(err error) int
	// TypeResolver overrides the code based problem type.
	TypeResolver func(err error) string

	// ErrorIDGenerator replaces the random "error_id" extension.
	ErrorIDGenerator func() string
	// DisableErrorID omits the "error_id" extension.
	DisableErrorID bool
}

// NewRFC9457 returns a problem details formatter.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// ProblemDetail is the problem details document. Extensions are
// serialized as top-level members.
type ProblemDetail struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

var reservedMembers = map[string]bool{
	"type": true, "title": true, "status": true, "detail": true, "instance": true,
}

// MarshalJSON implements json.Marshaler.
func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		if !reservedMembers[k] {
			doc[k] = v
		}
	}
	doc["type"] = p.Type
	doc["title"] = p.Title
	doc["status"] = p.Status
	if p.Detail != "" {
		doc["detail"] = p.Detail
	}
	if p.Instance != "" {
		doc["instance"] = p.Instance
	}
	return json.Marshal(doc)
}

// Format implements Formatter. The request path becomes the problem
// instance; code and details become the "code" and "errors" extensions.
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := StatusOf(err)
	if f.StatusResolver != nil {
		status = f.StatusResolver(err)
	}

	p := ProblemDetail{
		Type:       f.problemType(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Extensions: make(map[string]any),
	}
	if req != nil && req.URL != nil {
		p.Instance = req.URL.Path
	}

	switch {
	case f.DisableErrorID:
	case f.ErrorIDGenerator != nil:
		p.Extensions["error_id"] = f.ErrorIDGenerator()
	default:
		p.Extensions["error_id"] = newErrorID()
	}
	if code, ok := CodeOf(err); ok {
		p.Extensions["code"] = code
	}
	if details, ok := DetailsOf(err); ok {
		p.Extensions["errors"] = details
	}

	return Response{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Body:        p,
	}
}

func (f *RFC9457) problemType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}
	code, ok := CodeOf(err)
	switch {
	case !ok:
		return "about:blank"
	case f.BaseURL == "":
		return code
	default:
		return f.BaseURL + "/" + code
	}
}

func newErrorID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("err-%d", time.Now().UnixNano())
	}
	return "err-" + hex.EncodeToString(b[:])
}
