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
	"log/slog"
	"strings"
	"time"

	"rivaas.dev/routing/errors"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for registration errors, and for
// diagnostic events when no diagnostic handler is set. The default
// discards all output.
//
// Example:
//
//	r := router.MustNew(router.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDiagnostics sets a diagnostic handler for the router.
//
// Diagnostic events are optional informational events that may indicate
// configuration issues, such as a host bound twice or an unknown REST
// action passed to Only.
//
// Example:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithRoot sets the path every built URL starts with, for applications
// served below an entry script or a sub path.
//
// Example:
//
//	r := router.MustNew(router.WithRoot("/index.php"))
//	r.Build("blog/read?id=10", nil) // "/index.php/blog/10"
func WithRoot(root string) Option {
	return func(r *Router) {
		root = strings.Trim(root, "/")
		if root == "" {
			r.root = ""
			return
		}
		r.root = "/" + root
	}
}

// WithSuffix sets the URL suffixes of the application, without dots.
//
// Incoming paths have a listed suffix stripped before matching; the
// stripped suffix is available as Result.Ext. The first suffix is appended
// to built URLs unless the build asks otherwise.
//
// Without this option any suffix is stripped and built URLs get none.
//
// Example:
//
//	r := router.MustNew(router.WithSuffix("html", "shtml"))
func WithSuffix(exts ...string) Option {
	return func(r *Router) {
		r.suffixes = r.suffixes[:0]
		for _, ext := range exts {
			r.suffixes = append(r.suffixes, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), ".")))
		}
	}
}

// WithoutSuffixStrip keeps URL suffixes on incoming paths. Rules then have
// to spell out the suffix they answer.
func WithoutSuffixStrip() Option {
	return func(r *Router) {
		r.stripSuffix = false
	}
}

// WithRootDomain sets the root domain used to resolve bare sub-domain
// labels: with root domain "example.com", Domain("blog", ...) binds
// "blog.example.com". Built absolute URLs use it as the default host.
func WithRootDomain(domain string) Option {
	return func(r *Router) {
		r.rootDomain = strings.ToLower(strings.Trim(domain, "."))
	}
}

// WithScheme sets the scheme of built absolute URLs for rules that do not
// require https. Must be "http" or "https". Default: "http".
func WithScheme(scheme string) Option {
	return func(r *Router) {
		r.scheme = strings.ToLower(scheme)
	}
}

// WithStrictResources makes Only and Except options naming an action
// missing from the REST table a registration error instead of a
// diagnostic.
func WithStrictResources() Option {
	return func(r *Router) {
		r.strictResources = true
	}
}

// WithLenientBuild makes Build log failures and return a best-effort URL
// instead of an error.
func WithLenientBuild() Option {
	return func(r *Router) {
		r.lenientBuild = true
	}
}

// WithURLConvert controls controller and action name conversion in URLs
// built by convention: controller "BlogPost" becomes "blog_post" and
// actions are lower-cased. Default: true.
func WithURLConvert(enabled bool) Option {
	return func(r *Router) {
		r.urlConvert = enabled
	}
}

// WithConventional controls the conventional "module/controller/action"
// fallback of Resolve. Default: true.
func WithConventional(enabled bool) Option {
	return func(r *Router) {
		r.conventional = enabled
	}
}

// WithoutConventional disables the conventional dispatch fallback.
// This is equivalent to WithConventional(false).
func WithoutConventional() Option {
	return WithConventional(false)
}

// WithDefaults sets the module, controller and action used when a
// dispatch does not name one. Default: "index" for all three.
func WithDefaults(module, controller, action string) Option {
	return func(r *Router) {
		r.defaultModule = module
		r.defaultController = controller
		r.defaultAction = action
	}
}

// WithCompleteMatch sets whether rules must match the whole path by
// default. Default: true. Rules and patterns ending in "$" always match
// completely; Rule.SetComplete overrides the default per rule.
//
// With complete match off, the path left over after a rule matched is
// parsed as "key/value" pairs into the route parameters.
func WithCompleteMatch(enabled bool) Option {
	return func(r *Router) {
		r.completeMatch = enabled
	}
}

// WithPathVars makes Build emit parameters that fill no capture as
// "/key/value" path segments instead of a query string.
func WithPathVars() Option {
	return func(r *Router) {
		r.pathVars = true
	}
}

// WithInvoker sets the invoker ServeHTTP hands module, controller and
// method dispatches to. Without one those dispatches answer 501.
func WithInvoker(invoker Invoker) Option {
	return func(r *Router) {
		r.invoker = invoker
	}
}

// WithObservability sets the observability recorder used by ServeHTTP.
func WithObservability(recorder ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = recorder
	}
}

// WithErrorFormatter sets the formatter used for error responses written
// by ServeHTTP. Default: RFC 9457 problem details.
func WithErrorFormatter(formatter errors.Formatter) Option {
	return func(r *Router) {
		if formatter != nil {
			r.formatter = formatter
		}
	}
}

// WithH2C enables HTTP/2 Cleartext support in Serve.
//
// Only use in development or behind a trusted load balancer.
//
// Example:
//
//	r := router.MustNew(router.WithH2C(true))
//	r.Serve(":8080")
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithServerTimeouts configures HTTP server timeouts used by Serve.
//
// Defaults (if not set):
//
//	ReadHeaderTimeout: 5s
//	ReadTimeout:       15s
//	WriteTimeout:      30s
//	IdleTimeout:       60s
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}
