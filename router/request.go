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

package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"rivaas.dev/routing/router/route"
)

// Request is the part of an incoming request the router looks at.
type Request struct {
	Method string
	Scheme string
	Host   string
	Path   string
	// RawPath is the escaped path when it differs from the default
	// encoding of Path, as in url.URL. It lets "%2F" inside a segment
	// reach a capture instead of splitting the path.
	RawPath string
	Query   *route.Params
	// Form holds POST and PUT parameters when the caller has parsed them.
	Form *route.Params
}

// NewRequest creates a Request from a method and a URL, absolute or
// path-only.
//
// Example:
//
//	req, err := router.NewRequest(http.MethodGet, "https://blog.example.com/read/5?page=2")
func NewRequest(method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse request url: %w", err)
	}
	query, err := route.ParseParams(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse request query: %w", err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return &Request{
		Method:  strings.ToUpper(method),
		Scheme:  scheme,
		Host:    u.Host,
		Path:    u.Path,
		RawPath: u.RawPath,
		Query:   query,
	}, nil
}

// MustRequest is like NewRequest but panics on error. It is meant for
// tests and examples.
func MustRequest(method, rawURL string) *Request {
	req, err := NewRequest(method, rawURL)
	if err != nil {
		panic(err)
	}
	return req
}

// FromHTTP converts an *http.Request. The form is taken from PostForm only
// if the caller has already parsed it; the router never reads the body.
func FromHTTP(req *http.Request) *Request {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	} else if proto := strings.ToLower(req.Header.Get("X-Forwarded-Proto")); proto == "https" || proto == "http" {
		scheme = proto
	}

	query, err := route.ParseParams(req.URL.RawQuery)
	if err != nil {
		query = route.FromValues(req.URL.Query())
	}

	r := &Request{
		Method:  req.Method,
		Scheme:  scheme,
		Host:    req.Host,
		Path:    req.URL.Path,
		RawPath: req.URL.RawPath,
		Query:   query,
	}
	if req.PostForm != nil {
		r.Form = route.FromValues(req.PostForm)
	}
	return r
}

var (
	segmentEscaper   = strings.NewReplacer("%", "%25", "/", "%2F")
	segmentUnescaper = strings.NewReplacer("%2F", "/", "%25", "%")
)

// matchPath returns the path used for matching. When a segment of RawPath
// decodes to a value containing a slash, every segment is decoded and only
// "/" and "%" are escaped again; the second result is then true and values
// taken from the path must go through decodeSegment.
func (req *Request) matchPath() (string, bool) {
	if req.RawPath == "" || !strings.Contains(req.RawPath, "%") {
		return req.Path, false
	}
	segs := strings.Split(req.RawPath, "/")
	encoded := false
	for i, seg := range segs {
		v, err := url.PathUnescape(seg)
		if err != nil {
			return req.Path, false
		}
		if strings.Contains(v, "/") {
			encoded = true
		}
		segs[i] = segmentEscaper.Replace(v)
	}
	if !encoded {
		return req.Path, false
	}
	return strings.Join(segs, "/"), true
}

func decodeSegment(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	return segmentUnescaper.Replace(s)
}
