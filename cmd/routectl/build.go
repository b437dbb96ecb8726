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
	"fmt"

	"github.com/spf13/cobra"

	"rivaas.dev/routing/router"
)

func buildCmd(g *globalFlags) *cobra.Command {
	var (
		suffix   string
		noSuffix bool
		domain   string
		absolute bool
	)

	cmd := &cobra.Command{
		Use:   "build REF [key=value ...]",
		Short: "Build a URL from a rule name, target or path",
		Long: `Build a URL the way the application would. REF is a rule name, a
dispatch target, a "path.ext" or "path@domain" reference, or a conventional
path. Parameters fill captures first; the rest become "key/value" pairs or
query parameters.`,
		Example: `  routectl -c routes.yaml build blog id=5
  routectl -c routes.yaml build index/blog/read id=5 --suffix shtml
  routectl -c routes.yaml build api/item/read@api id=3 --absolute`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parsePairs(args[1:])
			if err != nil {
				return err
			}

			var opts []router.BuildOption
			switch {
			case noSuffix:
				opts = append(opts, router.NoSuffix())
			case suffix != "":
				opts = append(opts, router.Suffix(suffix))
			}
			if domain != "" {
				opts = append(opts, router.Domain(domain))
			}
			if absolute {
				opts = append(opts, router.Absolute())
			}

			r, err := g.router(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			url, err := r.Build(args[0], params, opts...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}

	cmd.Flags().StringVar(&suffix, "suffix", "", "URL suffix to append instead of the configured one")
	cmd.Flags().BoolVar(&noSuffix, "no-suffix", false, "do not append a URL suffix")
	cmd.Flags().StringVar(&domain, "domain", "", "host or sub-domain label of the URL")
	cmd.Flags().BoolVar(&absolute, "absolute", false, "always include scheme and host")
	cmd.MarkFlagsMutuallyExclusive("suffix", "no-suffix")
	return cmd
}
