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
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	riverrors "rivaas.dev/routing/errors"
)

// Invoker runs module, controller and method dispatches for ServeHTTP.
// Redirect and closure dispatches are handled by the router itself.
//
// The returned value is written as the response: nil as 204, a string as
// text, a []byte as is, an http.Handler is served, anything else as JSON.
// Errors are written with the router's error formatter; errors
// implementing errors.ErrorType choose their status.
type Invoker interface {
	Invoke(ctx context.Context, res *Result) (any, error)
}

// InvokerFunc is a function adapter for Invoker.
type InvokerFunc func(ctx context.Context, res *Result) (any, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, res *Result) (any, error) {
	return f(ctx, res)
}

type resultKey struct{}

// ResultFromContext returns the Result stored by ServeHTTP in the context
// passed to invokers and closures.
func ResultFromContext(ctx context.Context) (*Result, bool) {
	res, ok := ctx.Value(resultKey{}).(*Result)
	return res, ok
}

// ServeHTTP resolves the request with Resolve and runs the dispatch.
// Requests nothing matches are answered 404 with the error formatter.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	var obsState any

	if r.observability != nil {
		var enrichedCtx context.Context
		enrichedCtx, obsState = r.observability.OnRequestStart(ctx, req)
		if enrichedCtx != ctx {
			ctx = enrichedCtx
			req = req.WithContext(ctx)
		}
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	pattern := r.serve(w, req)

	if obsState != nil {
		r.observability.OnRequestEnd(ctx, obsState, w, pattern)
	}
}

func (r *Router) serve(w http.ResponseWriter, req *http.Request) string {
	res, err := r.Resolve(FromHTTP(req))
	if err != nil {
		r.logger.Error("resolve failed", "error", err)
		r.writeError(w, req, err)
		return "_error"
	}
	if !res.Matched() {
		r.writeError(w, req, riverrors.WithCode(riverrors.WithStatus(ErrRouteNotFound, http.StatusNotFound), "route_not_found"))
		return res.Pattern()
	}

	ctx := context.WithValue(req.Context(), resultKey{}, res)
	req = req.WithContext(ctx)

	var out any
	switch d := res.Dispatch.(type) {
	case RedirectDispatch:
		http.Redirect(w, req, d.URL, d.Status)
		return res.Pattern()
	case ClosureDispatch:
		out, err = d.Func(ctx, res.Merged())
	default:
		if r.invoker == nil {
			r.emit(DiagInvokerAbsent, "dispatch without invoker", map[string]any{"dispatch": res.Dispatch.String()})
			err = riverrors.WithCode(riverrors.WithStatus(ErrNoInvoker, http.StatusNotImplemented), "no_invoker")
			break
		}
		out, err = r.invoker.Invoke(ctx, res)
	}
	if err != nil {
		r.writeError(w, req, err)
		return res.Pattern()
	}

	r.writeValue(w, req, out)
	return res.Pattern()
}

func (r *Router) writeValue(w http.ResponseWriter, req *http.Request, v any) {
	switch v := v.(type) {
	case nil:
		w.WriteHeader(http.StatusNoContent)
	case http.Handler:
		v.ServeHTTP(w, req)
	case string:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(v))
	case []byte:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/octet-stream")
		}
		_, _ = w.Write(v)
	default:
		body, err := json.Marshal(v)
		if err != nil {
			r.writeError(w, req, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(body)
	}
}

func (r *Router) writeError(w http.ResponseWriter, req *http.Request, err error) {
	resp := r.formatter.Format(req, err)
	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	if resp.Body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		r.logger.Error("write error response", "error", err)
	}
}

// Serve starts an HTTP server on addr with the router as handler. The
// rule table is frozen first; rule errors are returned before listening.
//
// Example:
//
//	r := router.MustNew(router.WithH2C(true))
//	r.GET("hello/:name", route.Func("hello", hello))
//	log.Fatal(r.Serve(":8080"))
func (r *Router) Serve(addr string) error {
	if err := r.Freeze(); err != nil {
		return err
	}

	h := http.Handler(r)
	if r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}

	return r.server(addr, h).ListenAndServe()
}

// ServeTLS starts an HTTPS server on addr. HTTP/2 is enabled via ALPN.
func (r *Router) ServeTLS(addr, certFile, keyFile string) error {
	if err := r.Freeze(); err != nil {
		return err
	}
	return r.server(addr, r).ListenAndServeTLS(certFile, keyFile)
}

func (r *Router) server(addr string, h http.Handler) *http.Server {
	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}
}
