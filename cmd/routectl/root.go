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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rivaas.dev/routing/config"
	"rivaas.dev/routing/logging"
	"rivaas.dev/routing/router"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configs   []string
	envPrefix string
	consul    string
	logLevel  string
	logFormat string
	color     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "routectl",
		Short: "Inspect and serve route tables",
		Long: `routectl loads a route table from YAML, JSON or TOML files, the
environment and Consul, and then lists its rules, resolves requests against
it, builds URLs from it or serves it over HTTP.

Later sources override earlier ones: maps are merged, lists are appended.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringArrayVarP(&g.configs, "config", "c", nil, "route table file (repeatable)")
	flags.StringVar(&g.envPrefix, "env", "", "also read ROUTES-style variables with this prefix, e.g. ROUTES_")
	flags.StringVar(&g.consul, "consul", "", "also read this Consul key (needs CONSUL_HTTP_ADDR)")
	flags.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&g.logFormat, "log-format", "console", "log format: console, text or json")
	flags.StringVar(&g.color, "color", "auto", "color console logs: auto, always or never")

	cmd.AddCommand(
		rulesCmd(g),
		checkCmd(g),
		buildCmd(g),
		exportCmd(g),
		serveCmd(g),
		versionCmd(),
	)
	return cmd
}

func (g *globalFlags) loader(extra ...config.Option) (*config.Loader, error) {
	if len(g.configs) == 0 && g.envPrefix == "" && g.consul == "" {
		return nil, fmt.Errorf("no route table given: use --config, --env or --consul")
	}
	opts := make([]config.Option, 0, len(g.configs)+2+len(extra))
	for _, path := range g.configs {
		opts = append(opts, config.WithFile(path))
	}
	if g.envPrefix != "" {
		opts = append(opts, config.WithEnv(g.envPrefix))
	}
	if g.consul != "" {
		opts = append(opts, config.WithConsul(g.consul))
	}
	opts = append(opts, extra...)
	return config.New(opts...)
}

func (g *globalFlags) logger(w io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithHandlerType(logging.HandlerType(g.logFormat)),
		logging.WithColor(logging.ColorMode(g.color)),
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithServiceName("routectl"),
	)
}

// router loads the route table and builds a frozen router from it.
func (g *globalFlags) router(ctx context.Context, cmd *cobra.Command, opts ...router.Option) (*router.Router, error) {
	l, err := g.loader()
	if err != nil {
		return nil, err
	}
	table, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	log, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return table.NewRouter(append([]router.Option{logging.Router(log)}, opts...)...)
}
