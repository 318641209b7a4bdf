package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skosovsky/tooluse"
	"github.com/skosovsky/tooluse/ext/toolmetrics"
	"github.com/skosovsky/tooluse/internal/config"
	"github.com/skosovsky/tooluse/toolkits/completion"
	"github.com/skosovsky/tooluse/toolkits/fstool"
	"github.com/skosovsky/tooluse/toolkits/human"
	"github.com/skosovsky/tooluse/toolkits/subtask"
	"github.com/skosovsky/tooluse/toolkits/todolist"
)

// app is everything one CLI invocation shares across tasks.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *tooluse.Registry
	parser   *tooluse.NativeParser
	board    *todolist.Board
	metrics  http.Handler
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	promReg := prometheus.NewRegistry()
	m, err := toolmetrics.New(promReg)
	if err != nil {
		return nil, err
	}

	reg := tooluse.NewRegistry(
		tooluse.WithLogger(logger),
		tooluse.WithMaxConcurrency(cfg.MaxConcurrency),
		m.RegistryOption(),
	)
	reg.Use(tooluse.WithLogging(logger))

	board := todolist.NewBoard()
	completionOpts := []completion.Option{completion.WithLogger(logger)}
	if cfg.PreventCompletionWithOpenTodos {
		completionOpts = append(completionOpts, completion.WithChecklist(board))
	}
	var subtaskOpts []subtask.Option
	if cfg.RequireTodos {
		subtaskOpts = append(subtaskOpts, subtask.WithRequiredTodos())
	}
	spawner := subtask.SpawnFunc(func(_ context.Context, req subtask.Request) (string, error) {
		id := uuid.NewString()
		board.Set(id, req.Todos)
		logger.Info("sub-task created", "parent", req.ParentID, "child", id, "mode", req.Mode.Slug)
		return id, nil
	})

	modeReg, err := cfg.ModeRegistry()
	if err != nil {
		return nil, err
	}

	reg.Register(tooluse.Bind(completion.New(completionOpts...)))
	reg.Register(tooluse.Bind(subtask.New(modeReg, spawner, subtaskOpts...)))
	reg.Register(tooluse.Bind(fstool.NewListFiles(fstool.WithLimit(cfg.ListFilesLimit), fstool.WithListLogger(logger))))
	reg.Register(tooluse.Bind(fstool.NewReadFile()))
	reg.Register(tooluse.Bind(human.New()))
	reg.Register(tooluse.Bind(todolist.New(board)))

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		parser:   tooluse.NewNativeParser(tooluse.WithParserLogger(logger), m.ParserOption()),
		board:    board,
		metrics:  promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
	}, nil
}

// newDriver creates the driver for one task.
func (a *app) newDriver(task tooluse.Task, cb tooluse.Callbacks) *tooluse.Driver {
	opts := []tooluse.DriverOption{tooluse.WithDriverLogger(a.logger), tooluse.WithParser(a.parser)}
	if a.cfg.SingleToolPerTurn {
		opts = append(opts, tooluse.WithSingleToolPerTurn())
	}
	return tooluse.NewDriver(a.registry, task, cb, opts...)
}

// serveMetrics exposes /metrics until ctx is done. It returns immediately when no
// address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics)
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("serving metrics", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// close shuts the registry down, waiting for in-flight executions.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.registry.Shutdown(ctx)
}
