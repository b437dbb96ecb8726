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

package route

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TargetKind identifies what a rule dispatches to.
type TargetKind uint8

const (
	// TargetModule is a "module/controller/action" path.
	TargetModule TargetKind = iota
	// TargetController is an "@controller/action" reference.
	TargetController
	// TargetMethod is a `\Class@method` or `\Class::method` reference.
	TargetMethod
	// TargetRedirect is a path starting with "/" or an absolute URL.
	TargetRedirect
	// TargetClosure is a registered Go function.
	TargetClosure
)

// String returns the lower-case kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetModule:
		return "module"
	case TargetController:
		return "controller"
	case TargetMethod:
		return "method"
	case TargetRedirect:
		return "redirect"
	case TargetClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Closure is a function target. It receives the merged request parameters.
type Closure func(ctx context.Context, params *Params) (any, error)

// Target errors.
var (
	ErrEmptyTarget   = errors.New("empty route target")
	ErrInvalidTarget = errors.New("invalid route target")
)

// Target is a rule target, classified once at registration.
type Target struct {
	Kind TargetKind

	// Ref is the reference used for reverse lookups: the target text
	// without its query string, or the closure name.
	Ref string
	// Query holds default parameters given as "target?k=v".
	Query *Params

	// Module, Controller and Action are set for module and controller
	// targets. Empty parts fall back to the router defaults at dispatch.
	Module     string
	Controller string
	Action     string

	// Class and Method are set for method targets.
	Class  string
	Method string
	Static bool

	// URL is the redirect template for redirect targets.
	URL string

	// Func is the function of closure targets.
	Func Closure
}

// ParseTarget classifies a target string.
//
//	index/blog/read            module
//	blog/read?status=1         module with default parameters
//	@index/blog/read           controller
//	\app\service\Blog@read     method on an instance
//	\app\service\Blog::read    static method
//	/new/:id, https://x/:id    redirect
func ParseTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyTarget
	}

	if strings.HasPrefix(raw, "/") || strings.Contains(raw, "://") {
		return Target{Kind: TargetRedirect, Ref: raw, URL: raw}, nil
	}

	ref, rawQuery, hasQuery := strings.Cut(raw, "?")
	t := Target{Ref: ref}
	if hasQuery {
		q, err := ParseParams(rawQuery)
		if err != nil {
			return Target{}, fmt.Errorf("%w %q: %w", ErrInvalidTarget, raw, err)
		}
		t.Query = q
	}

	switch {
	case strings.HasPrefix(ref, `\`):
		t.Kind = TargetMethod
		class, method, static := splitMethod(ref[1:])
		if class == "" || method == "" {
			return Target{}, fmt.Errorf("%w %q: expected \\Class@method or \\Class::method", ErrInvalidTarget, raw)
		}
		t.Class, t.Method, t.Static = class, method, static

	case strings.HasPrefix(ref, "@"):
		t.Kind = TargetController
		t.Module, t.Controller, t.Action = SplitModulePath(ref[1:])
		if t.Controller == "" {
			t.Controller, t.Action = t.Action, ""
		}
		if t.Controller == "" {
			return Target{}, fmt.Errorf("%w %q: empty controller", ErrInvalidTarget, raw)
		}

	default:
		t.Kind = TargetModule
		t.Module, t.Controller, t.Action = SplitModulePath(ref)
		if t.Action == "" {
			return Target{}, fmt.Errorf("%w %q", ErrInvalidTarget, raw)
		}
	}

	return t, nil
}

// Func returns a named closure target. Named closures can be built by name.
func Func(name string, fn Closure) Target {
	return Target{Kind: TargetClosure, Ref: name, Func: fn}
}

// ToTarget converts a registration value to a Target. It accepts a target
// string, a Target, or a closure.
func ToTarget(v any) (Target, error) {
	switch t := v.(type) {
	case string:
		return ParseTarget(t)
	case Target:
		if t.Kind == TargetClosure && t.Func == nil {
			return Target{}, fmt.Errorf("%w: nil closure", ErrInvalidTarget)
		}
		return t, nil
	case Closure:
		if t == nil {
			return Target{}, fmt.Errorf("%w: nil closure", ErrInvalidTarget)
		}
		return Target{Kind: TargetClosure, Func: t}, nil
	case func(context.Context, *Params) (any, error):
		if t == nil {
			return Target{}, fmt.Errorf("%w: nil closure", ErrInvalidTarget)
		}
		return Target{Kind: TargetClosure, Func: t}, nil
	case nil:
		return Target{}, ErrEmptyTarget
	default:
		return Target{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTarget, v)
	}
}

// String returns the target as it would be registered.
func (t Target) String() string {
	if t.Kind == TargetClosure {
		if t.Ref == "" {
			return "closure"
		}
		return "closure:" + t.Ref
	}
	if q := t.Query.Encode(); q != "" {
		return t.Ref + "?" + q
	}
	return t.Ref
}

// SplitModulePath splits "module/controller/action". With fewer parts the
// leading ones are empty: "blog/read" has no module, "read" only an action.
// Extra leading parts are kept in the module ("admin/index/blog/read" has
// module "admin/index").
func SplitModulePath(path string) (module, controller, action string) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", "", ""
	}
	parts := strings.Split(path, "/")
	action = parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	if n := len(parts); n > 0 {
		controller = parts[n-1]
		parts = parts[:n-1]
	}
	module = strings.Join(parts, "/")
	return module, controller, action
}

func splitMethod(ref string) (class, method string, static bool) {
	if c, m, ok := strings.Cut(ref, "::"); ok {
		return c, m, true
	}
	if i := strings.LastIndexByte(ref, '@'); i >= 0 {
		return ref[:i], ref[i+1:], false
	}
	return ref, "", false
}

// Substitute replaces ":name" and "<name>" placeholders in tmpl with values
// from params. Placeholders without a value are left untouched. It reports
// the names that were substituted.
func Substitute(tmpl string, params *Params) (string, []string) {
	if params.Len() == 0 || !strings.ContainsAny(tmpl, ":<") {
		return tmpl, nil
	}

	var (
		b    strings.Builder
		used []string
	)
	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch c {
		case '<':
			end := strings.IndexByte(tmpl[i:], '>')
			if end > 0 {
				name := strings.TrimSuffix(tmpl[i+1:i+end], "?")
				if v, ok := params.Value(name); ok {
					b.WriteString(v)
					used = append(used, name)
					i += end + 1
					continue
				}
			}
		case ':':
			j := i + 1
			for j < len(tmpl) && isNameByte(tmpl[j]) {
				j++
			}
			if j > i+1 {
				name := tmpl[i+1 : j]
				if v, ok := params.Value(name); ok {
					b.WriteString(v)
					used = append(used, name)
					i = j
					continue
				}
			}
		}
		b.WriteByte(c)
		i++
	}

	return b.String(), used
}

func isNameByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
