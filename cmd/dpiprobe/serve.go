// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/dpiprobe/config"
	"github.com/rbmk-project/dpiprobe/eventlog"
	"github.com/rbmk-project/dpiprobe/fleet"
)

func serveMain(ctx context.Context, env *environ, args []string) error {
	var cf commonFlags
	fs := env.newFlagSet("serve", "serve [OPTIONS]", &cf)
	address := fs.StringP("address", "a", "", "local address to bind")
	export := fs.StringP("export", "o", "", "path of the events CSV file written on shutdown")
	interval := fs.Duration("stats-interval", 0, "interval between statistics reports")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return errUsage
	}
	cfg, err := cf.loadConfig()
	if err != nil {
		return err
	}
	if fs.Changed("address") {
		cfg.Server.Address = *address
	}
	if fs.Changed("export") {
		cfg.Server.ExportPath = *export
	}
	if fs.Changed("stats-interval") {
		cfg.Server.StatsInterval = *interval
	}
	return runServe(ctx, env, cfg)
}

// errNoListeners indicates that no listener could be bound.
var errNoListeners = errors.New("no listener could be bound")

// runServe serves until ctx is done, then exports the event log.
func runServe(ctx context.Context, env *environ, cfg *config.Config) error {
	logger, err := config.SetupLogging(env.stderr, cfg.Log)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(slog.String("runID", runID))

	log := eventlog.New()
	srv, err := cfg.Server.NewServer(log, logger)
	if err != nil {
		return err
	}
	endpoints, err := srv.Start(ctx)
	if len(endpoints) <= 0 {
		srv.Close()
		return errors.Join(errNoListeners, err)
	}

	var sb strings.Builder
	for _, ep := range endpoints {
		fmt.Fprintf(&sb, "listening on %-20s %s\n", ep.Config.Transport.String()+"-"+ep.Config.Label, ep.Addr)
	}
	fmt.Fprintf(&sb, "All %d listeners started. Waiting for connections...\n", len(endpoints))
	fmt.Fprint(env.stdout, sb.String())

	reporter := &fleet.Reporter{Interval: cfg.Server.StatsInterval, Log: log, Output: env.stdout}
	done := make(chan struct{})
	go func() {
		defer close(done)
		reporter.Run(ctx)
	}()

	<-ctx.Done()
	<-done
	logger.InfoContext(ctx, "shuttingDown", slog.Int("events", log.Len()))
	if err := srv.Close(); err != nil {
		logger.WarnContext(ctx, "closeFailed", slog.Any("err", err), slog.String("errClass", errclass.New(err)))
	}

	path, err := exportLog(ctx, logger, log, cfg.Server.ExportPath, runID)
	if err != nil {
		return err
	}
	snap := log.Snapshot()
	sb.Reset()
	snap.WriteStats(&sb)
	fmt.Fprintf(&sb, "Log saved to: %s\nTotal events logged: %d\n", path, len(snap.Events))
	fmt.Fprint(env.stdout, sb.String())
	return nil
}

// exportLog exports the log to path or, when path is empty or the export
// fails, to a file named after the run in the temporary directory.
func exportLog(ctx context.Context, logger *slog.Logger, log *eventlog.Log, path, runID string) (string, error) {
	fallback := filepath.Join(os.TempDir(), fmt.Sprintf("dpiprobe-events-%s.csv", runID))
	if path == "" {
		path = fallback
	}
	err := log.Export(path)
	if err != nil && path != fallback {
		logger.WarnContext(ctx, "exportFailed",
			slog.String("path", path),
			slog.String("fallback", fallback),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
		)
		if log.Export(fallback) == nil {
			return fallback, nil
		}
	}
	return path, err
}
