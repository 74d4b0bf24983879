// SPDX-License-Identifier: GPL-3.0-or-later

// Command dpiprobe measures how a network path treats DNS, SSH, and TLS.
//
// Run "dpiprobe serve" on a host you control outside the censored network
// to start the synthetic responders, then run "dpiprobe probe HOST" from
// inside the censored network to send crafted payloads and analyze them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbmk-project/dpiprobe/config"
	flag "github.com/spf13/pflag"
)

const usage = `usage: dpiprobe COMMAND [OPTIONS]

Commands:
  serve         run the synthetic protocol responders
  probe HOST    send crafted payloads to HOST and analyze the results
  plan          print the probes that "probe" would send

Run "dpiprobe COMMAND --help" for the command options.
`

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run runs the command line until completion or interrupt.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runContext(ctx, args, stdout, stderr)
}

// command is a subcommand.
type command func(ctx context.Context, env *environ, args []string) error

// environ contains the state shared by subcommands.
type environ struct {
	stdout io.Writer
	stderr io.Writer
}

var commands = map[string]command{
	"plan":  planMain,
	"probe": probeMain,
	"serve": serveMain,
}

// errUsage indicates a command line usage error already reported to the user.
var errUsage = errors.New("usage error")

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	switch args[0] {
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	cmd, found := commands[args[0]]
	if !found {
		fmt.Fprintf(stderr, "dpiprobe: unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
	env := &environ{stdout: stdout, stderr: stderr}
	switch err := cmd(ctx, env, args[1:]); {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		fmt.Fprintf(stderr, "dpiprobe %s: %s\n", args[0], err)
		return exitFailure
	}
}

// commonFlags contains the flags shared by all subcommands.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// newFlagSet returns a [*flag.FlagSet] with the common flags.
func (env *environ) newFlagSet(name, synopsis string, cf *commonFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "usage: dpiprobe %s\n\nOptions:\n", synopsis)
		fs.PrintDefaults()
	}
	fs.StringVarP(&cf.configPath, "config", "c", "", "YAML plan file overriding the defaults")
	fs.StringVar(&cf.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&cf.logFormat, "log-format", "", "log format: text, json")
	return fs
}

// parse parses the flags and maps parse errors to errUsage.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	return nil
}

// loadConfig loads the configuration and applies the logging flags.
func (cf *commonFlags) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cf.configPath != "" {
		var err error
		if cfg, err = config.Load(cf.configPath); err != nil {
			return nil, err
		}
	}
	if cf.logLevel != "" {
		cfg.Log.Level = cf.logLevel
	}
	if cf.logFormat != "" {
		cfg.Log.Format = cf.logFormat
	}
	return cfg, nil
}
