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
	"github.com/spf13/cobra"

	"rivaas.dev/routing/config"
	"rivaas.dev/routing/config/codec"
)

func exportCmd(g *globalFlags) *cobra.Command {
	var (
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged route table",
		Long: `Merge every source, validate the result and write it as one document,
to stdout or to a file. The file format follows its extension unless
--format is given.`,
		Example: `  routectl -c routes.yaml -c overrides.toml export --format json
  routectl -c routes.yaml --env ROUTES_ export --out merged.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var extra []config.Option
			if out != "" {
				if format != "" {
					extra = append(extra, config.WithFileDumperAs(out, codec.Type(format)))
				} else {
					extra = append(extra, config.WithFileDumper(out))
				}
			}
			l, err := g.loader(extra...)
			if err != nil {
				return err
			}
			if _, err := l.Load(cmd.Context()); err != nil {
				return err
			}
			if out != "" {
				return l.Dump(cmd.Context())
			}

			enc, err := codec.GetEncoder(codec.Type(or(format, string(codec.TypeYAML))))
			if err != nil {
				return err
			}
			data, err := enc.Encode(l.Values())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "", "yaml, json or toml")
	return cmd
}
