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

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"rivaas.dev/routing/router"
	"rivaas.dev/routing/router/route"
)

func checkCmd(g *globalFlags) *cobra.Command {
	var (
		form   []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "check [METHOD] URL",
		Short: "Resolve a request against the route table",
		Long: `Resolve a request and print where it dispatches. The method defaults
to GET. Without a host in URL, rules scoped to a domain do not match.`,
		Example: `  routectl -c routes.yaml check http://example.com/blog/5.html
  routectl -c routes.yaml check POST /hello/ann --form greeting=hi`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, rawURL := http.MethodGet, args[0]
			if len(args) == 2 {
				method, rawURL = strings.ToUpper(args[0]), args[1]
			}
			req, err := router.NewRequest(method, rawURL)
			if err != nil {
				return err
			}
			if len(form) > 0 {
				if req.Form, err = parsePairs(form); err != nil {
					return err
				}
			}

			r, err := g.router(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			res, err := r.Resolve(req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(describe(res)); err != nil {
					return err
				}
			} else {
				renderResult(cmd.OutOrStdout(), method, rawURL, res)
			}
			if !res.Matched() {
				return fmt.Errorf("no rule matches %s %s", method, rawURL)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&form, "form", nil, "form parameter key=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// resultView is the printable form of a router.Result.
type resultView struct {
	Matched  bool              `json:"matched"`
	Kind     string            `json:"kind,omitempty"`
	Dispatch string            `json:"dispatch,omitempty"`
	Label    string            `json:"label"`
	Path     string            `json:"path"`
	Ext      string            `json:"ext,omitempty"`
	Route    map[string]string `json:"route,omitempty"`
	Query    map[string]string `json:"query,omitempty"`
	Form     map[string]string `json:"form,omitempty"`
}

func describe(res *router.Result) resultView {
	v := resultView{
		Matched: res.Matched(),
		Label:   res.Pattern(),
		Path:    res.Path,
		Ext:     res.Ext,
	}
	if res.Matched() {
		v.Kind = res.Dispatch.Kind().String()
		v.Dispatch = res.Dispatch.String()
	}
	if res.Route.Len() > 0 {
		v.Route = res.Route.Map()
	}
	if res.Query.Len() > 0 {
		v.Query = res.Query.Map()
	}
	if res.Form.Len() > 0 {
		v.Form = res.Form.Map()
	}
	return v
}

func renderResult(w io.Writer, method, rawURL string, res *router.Result) {
	cw := colorWriter(w)
	v := describe(res)

	var out strings.Builder
	out.WriteString(categoryStyle.Render("Request") + "\n")
	out.WriteString(label("Method", method))
	out.WriteString(label("URL", rawURL))
	out.WriteString("\n" + categoryStyle.Render("Dispatch") + "\n")
	if !v.Matched {
		out.WriteString(labelStyle.Render("Result:") + "  " + dimStyle.Render("no match") + "\n")
		_, _ = fmt.Fprint(cw, out.String())
		return
	}
	out.WriteString(label("Kind", v.Kind))
	out.WriteString(label("Target", v.Dispatch))
	out.WriteString(label("Label", v.Label))
	out.WriteString(label("Path", v.Path))
	if v.Ext != "" {
		out.WriteString(label("Suffix", v.Ext))
	}
	if s := res.Route.Encode(); s != "" {
		out.WriteString(label("Route", s))
	}
	if s := res.Query.Encode(); s != "" {
		out.WriteString(label("Query", s))
	}
	if s := res.Form.Encode(); s != "" {
		out.WriteString(label("Form", s))
	}
	_, _ = fmt.Fprint(cw, out.String())
}

// parsePairs parses "key=value" arguments in order.
func parsePairs(pairs []string) (*route.Params, error) {
	p := route.NewParams()
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		p.Set(k, v)
	}
	return p, nil
}
