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
	"strings"
)

// Resolve is like Check, but a request nothing matches is dispatched by
// convention: the path is read as "module/controller/action" followed by
// "key/value" pairs. A module binding supplies the leading parts.
//
// Example:
//
//	res, _ := r.Resolve(router.MustRequest(http.MethodGet, "/admin/user/edit/id/5"))
//	// res.Dispatch: ModuleDispatch{"admin", "user", "edit"}, id=5
func (r *Router) Resolve(req *Request) (*Result, error) {
	res, err := r.Check(req)
	if err != nil || res.Matched() || !r.conventional {
		return res, err
	}
	r.dispatchConvention(res)
	return res, nil
}

func (r *Router) dispatchConvention(res *Result) {
	path := res.Path
	var module, controller string

	if b := r.moduleBinding(res); b != nil {
		module, controller = b.split()
	} else {
		module, path = cutSegment(path)
	}
	if controller == "" {
		controller, path = cutSegment(path)
	}
	action, rest := cutSegment(path)
	parsePairs(rest, res.Route, res.encoded)

	if r.urlConvert {
		action = strings.ToLower(action)
	}
	res.Convention = true
	res.Dispatch = ModuleDispatch{
		Module:     or(module, r.defaultModule),
		Controller: or(controller, r.defaultController),
		Action:     or(action, r.defaultAction),
	}
}
