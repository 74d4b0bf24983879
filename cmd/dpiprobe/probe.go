// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rbmk-project/dpiprobe/classify"
	"github.com/rbmk-project/dpiprobe/config"
)

func probeMain(ctx context.Context, env *environ, args []string) error {
	var cf commonFlags
	fs := env.newFlagSet("probe", "probe [OPTIONS] HOST", &cf)
	domain := fs.StringP("domain", "d", "", "domain queried by the DNS probes")
	timeout := fs.DurationP("timeout", "t", 0, "per-probe timeout")
	delay := fs.Duration("delay", 0, "pause between probes")
	results := fs.StringP("results", "o", "", "path of the results CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, err := cf.loadConfig()
	if err != nil {
		return err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Client.Target = fs.Arg(0)
	default:
		fs.Usage()
		return errUsage
	}
	if cfg.Client.Target == "" {
		fmt.Fprintf(env.stderr, "dpiprobe probe: missing HOST\n")
		fs.Usage()
		return errUsage
	}
	if fs.Changed("domain") {
		cfg.Client.Domain = *domain
	}
	if fs.Changed("timeout") {
		cfg.Client.Timeout = *timeout
	}
	if fs.Changed("delay") {
		cfg.Client.Delay = *delay
	}
	if fs.Changed("results") {
		cfg.Client.ResultsPath = *results
	}
	return runProbe(ctx, env, cfg)
}

// runProbe runs the probes, prints the analysis, and saves the results.
func runProbe(ctx context.Context, env *environ, cfg *config.Config) error {
	logger, err := config.SetupLogging(env.stderr, cfg.Log)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(slog.String("runID", runID))

	specs, err := cfg.Client.Specs()
	if err != nil {
		return err
	}
	runner := cfg.Client.NewRunner(logger)

	rule := strings.Repeat("=", 70)
	fmt.Fprintf(env.stdout, "%s\nProtocol analysis of %s (%d probes)\n%s\n",
		rule, cfg.Client.Target, len(specs), rule)
	report := runner.Run(ctx, cfg.Client.Target, specs)

	var sb strings.Builder
	sb.WriteString("\n")
	report.WriteTable(&sb)
	sb.WriteString("\n")
	classify.Write(&sb, classify.Classify(report.Results(), classify.DefaultRules))
	fmt.Fprint(env.stdout, sb.String())

	path := cfg.Client.ResultsPath
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("dpiprobe-results-%s.csv", runID))
	}
	if err := report.Export(path); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "\nResults saved to: %s\n", path)
	logger.InfoContext(ctx, "probeRunDone",
		slog.Int("probes", report.Len()),
		slog.Int("successes", report.SuccessCount()),
		slog.String("resultsPath", path),
	)
	return nil
}
