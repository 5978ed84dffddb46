package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/cellgraph/internal/api"
	"github.com/vango-dev/cellgraph/internal/logging"
	"github.com/vango-dev/cellgraph/pkg/cellgraph"
	"github.com/vango-dev/cellgraph/pkg/observe"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(g *globals) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the todo list over HTTP",
		Long: `Serve the todo list over HTTP and WebSocket.

The runtime stays alive for the life of the process. Every request is
queued on a single loop goroutine, and connected WebSocket clients
receive a new view after each change.

Examples:
  todos serve
  todos serve --port=9000
  todos serve --host=0.0.0.0 --store=postgres`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from cellgraph.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from cellgraph.json)")

	return cmd
}

func runServe(cmd *cobra.Command, g *globals, host string, port int) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var observers []cellgraph.Observer
	registry := prometheus.NewRegistry()
	if cfg.Server.Metrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observers = append(observers, observe.NewMetrics(observe.WithRegistry(registry)))
	}
	if cfg.Runtime.TraceExporter != observe.ExporterNone {
		tp, err := observe.NewTracerProvider(ctx, observe.ProviderConfig{
			ServiceName: "todos",
			Exporter:    cfg.Runtime.TraceExporter,
			Endpoint:    cfg.Runtime.TraceEndpoint,
			Writer:      cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("todos: tracer shutdown", "error", err)
			}
		}()
		observers = append(observers, observe.NewTracing(observe.WithTracerProvider(tp)))
	}

	var extra []cellgraph.Option
	if len(observers) > 0 {
		extra = append(extra, cellgraph.WithObserver(cellgraph.Observers(observers...)))
	}
	s, err := openSession(ctx, cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer s.Close()

	loop := cellgraph.NewLoop(s.rt,
		cellgraph.WithQueueSize(cfg.Server.QueueSize),
		cellgraph.WithLoopLogger(logger),
	)

	apiOpts := []api.Option{api.WithLogger(logger)}
	if cfg.Server.Metrics {
		apiOpts = append(apiOpts, api.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	srv := api.NewServer(loop, s.model, apiOpts...)

	httpServer := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	count := s.model.TodosCount(nil)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := loop.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := srv.Attach(gctx); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("attach view stream: %w", err)
		}
		success(cmd.OutOrStdout(), "Serving %d todos on http://%s", count, cfg.ServerAddress())
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		srv.Hub().Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = group.Wait()
	info(cmd.OutOrStdout(), "Shut down.")
	return err
}
