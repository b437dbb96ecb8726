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
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"rivaas.dev/routing/router/route"
)

func rulesCmd(g *globalFlags) *cobra.Command {
	var (
		method string
		name   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules of the route table",
		Long: `List the rules of the route table in registration order, which is
also matching order. Miss rules are listed with a "miss" kind.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := g.router(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			var infos []route.Info
			if name != "" {
				infos = r.Names(name)
			} else {
				infos = r.Rules(method)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}
			renderRules(cmd.OutOrStdout(), infos)
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "", "only rules answering this method")
	cmd.Flags().StringVarP(&name, "name", "n", "", "only rules registered under this name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func renderRules(w io.Writer, infos []route.Info) {
	cw := colorWriter(w)
	if len(infos) == 0 {
		_, _ = fmt.Fprintln(cw, dimStyle.Render("no rules"))
		return
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		methods := make([]string, len(info.Methods))
		for i, m := range info.Methods {
			if style, ok := methodStyles[m]; ok {
				m = style.Render(m)
			}
			methods[i] = m
		}
		pattern := info.Pattern
		if info.Domain != "" {
			pattern = info.Domain + " " + pattern
		}
		kind := info.Kind
		if info.Miss {
			kind = "miss"
		}
		rows = append(rows, []string{
			strings.Join(methods, "|"),
			pattern,
			info.Target,
			kind,
			or(info.Name, "-"),
			ruleOptions(info),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("Method", "Pattern", "Target", "Kind", "Name", "Options").
		Rows(rows...)
	if width := terminalWidth(w); width > 0 {
		t = t.Width(width)
	}
	_, _ = fmt.Fprintln(cw, t.Render())
}

// ruleOptions summarizes constraints, suffixes and flags of a rule.
func ruleOptions(info route.Info) string {
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(info.Constraints)) {
		parts = append(parts, k+"="+info.Constraints[k])
	}
	if len(info.Ext) > 0 {
		parts = append(parts, "ext="+strings.Join(info.Ext, "|"))
	}
	if info.Rest != "" {
		parts = append(parts, "rest="+info.Rest)
	}
	if info.Group != "" {
		parts = append(parts, "group="+info.Group)
	}
	if info.HTTPS {
		parts = append(parts, "https")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
