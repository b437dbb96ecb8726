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
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"rivaas.dev/routing/config"
	"rivaas.dev/routing/logging"
	"rivaas.dev/routing/metrics"
	"rivaas.dev/routing/router"
	"rivaas.dev/routing/tracing"
)

type serveFlags struct {
	addr         string
	watch        bool
	h2c          bool
	quiet        bool
	accessLog    bool
	metricsAddr  string
	metricsPath  string
	tracing      string
	otlpEndpoint string
	sampleRate   float64
}

func serveCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route table over HTTP",
		Long: `Serve the route table. Redirect rules answer with their redirect;
every other dispatch answers with a JSON description of where the request
would go, which makes serve a dry run of an application's routing.

The route table is reloaded on SIGHUP and, with --watch, whenever a
watchable source such as Consul changes. A table that fails to load or
compile is logged and the previous one keeps serving.`,
		Example: `  routectl -c routes.yaml serve --addr :8080
  routectl --consul routes/app.yaml serve --watch --metrics :9090 --tracing otlp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cmd, g, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.addr, "addr", ":8080", "listen address")
	flags.BoolVar(&f.watch, "watch", false, "reload when a watchable source changes")
	flags.BoolVar(&f.h2c, "h2c", false, "accept HTTP/2 without TLS")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "do not print the startup banner")
	flags.BoolVar(&f.accessLog, "access-log", true, "log one entry per request")
	flags.StringVar(&f.metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	flags.StringVar(&f.metricsPath, "metrics-path", "/metrics", "Prometheus scrape path")
	flags.StringVar(&f.tracing, "tracing", "", "span exporter: stdout, otlp or otlp-http")
	flags.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP collector endpoint")
	flags.Float64Var(&f.sampleRate, "sample-rate", 1, "share of requests to trace")
	return cmd
}

// liveRouter serves with the most recently loaded router.
type liveRouter struct {
	current atomic.Pointer[router.Router]
}

func (l *liveRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	l.current.Load().ServeHTTP(w, req)
}

// describeInvoker answers module, controller and method dispatches with
// their description.
var describeInvoker = router.InvokerFunc(func(_ context.Context, res *router.Result) (any, error) {
	return describe(res), nil
})

func serve(ctx context.Context, cmd *cobra.Command, g *globalFlags, f *serveFlags) error {
	log, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	loader, err := g.loader()
	if err != nil {
		return err
	}
	table, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	var (
		recorders   []router.ObservabilityRecorder
		diagnostics []router.DiagnosticHandler
		info        = bannerInfo{addr: f.addr, watch: f.watch, h2c: f.h2c, accessLog: f.accessLog}
	)

	tr, err := newTracer(f, log)
	if err != nil {
		return err
	}
	if tr != nil {
		if err := tr.Start(ctx); err != nil {
			return err
		}
		defer shutdown("tracing", log, tr.Shutdown)
		recorders = append(recorders, tr)
		diagnostics = append(diagnostics, tr)
		info.tracing = string(tr.Provider())
	}

	if f.metricsAddr != "" {
		rec, err := metrics.New(
			metrics.WithPrometheus(f.metricsAddr, f.metricsPath),
			metrics.WithServiceName("routectl"),
			metrics.WithServiceVersion(version),
			metrics.WithLogger(log.Logger()),
		)
		if err != nil {
			return err
		}
		if err := rec.Start(ctx); err != nil {
			return err
		}
		defer shutdown("metrics", log, rec.Shutdown)
		recorders = append(recorders, rec)
		diagnostics = append(diagnostics, rec)
		info.metrics = "http://" + rec.ServerAddress() + rec.Path()
	}

	if f.accessLog {
		recorders = append(recorders, logging.NewAccessLog(log))
	}

	opts := []router.Option{
		logging.Router(log, diagnostics...),
		router.WithInvoker(describeInvoker),
		router.WithObservability(router.Recorders(recorders...)),
	}
	build := func(t *config.RouteTable) (*router.Router, error) {
		return t.NewRouter(opts...)
	}

	r, err := build(table)
	if err != nil {
		return err
	}
	live := &liveRouter{}
	live.current.Store(r)

	reload := func(t *config.RouteTable, err error) {
		if err != nil {
			log.Error("route table reload failed", "error", err)
			return
		}
		next, err := build(t)
		if err != nil {
			log.Error("route table reload failed", "error", err)
			return
		}
		live.current.Store(next)
		log.Info("route table reloaded", "rules", len(next.Rules("")))
	}

	var handler http.Handler = live
	if f.h2c {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", f.addr, err)
	}

	if !f.quiet {
		info.addr = ln.Addr().String()
		info.rules = len(r.Rules(""))
		printBanner(cmd.OutOrStdout(), info)
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down", "addr", f.addr)
		return srv.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				log.Info("reloading route table", "signal", "SIGHUP")
				reload(loader.Load(gctx))
			}
		}
	})
	if f.watch {
		eg.Go(func() error {
			err := loader.Watch(gctx, reload)
			if errors.Is(err, config.ErrNotWatchable) {
				log.Warn("no watchable source, reloading on SIGHUP only")
				return nil
			}
			return err
		})
	}

	return eg.Wait()
}

func newTracer(f *serveFlags, log *logging.Logger) (*tracing.Tracer, error) {
	opts := []tracing.Option{
		tracing.WithServiceName("routectl"),
		tracing.WithServiceVersion(version),
		tracing.WithSampleRate(f.sampleRate),
		tracing.WithLogger(log.Logger()),
	}
	switch f.tracing {
	case "":
		return nil, nil
	case "stdout":
		opts = append(opts, tracing.WithStdout())
	case "otlp":
		opts = append(opts, tracing.WithOTLP(f.otlpEndpoint, tracing.OTLPInsecure()))
	case "otlp-http":
		opts = append(opts, tracing.WithOTLPHTTP(f.otlpEndpoint))
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q: use stdout, otlp or otlp-http", f.tracing)
	}
	return tracing.New(opts...)
}

func shutdown(name string, log *logging.Logger, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("shutdown failed", "component", name, "error", err)
	}
}
