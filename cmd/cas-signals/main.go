// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mmichal10/open-cas-linux/lib/config"
	"github.com/mmichal10/open-cas-linux/lib/process"
	"github.com/mmichal10/open-cas-linux/lib/report"
	"github.com/mmichal10/open-cas-linux/lib/version"
)

const (
	exitDiagnostics = 1
	exitOperational = 2
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// Commands that already reported their outcome return an
		// exitError; don't print a redundant "error:" line.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		process.Fatal(err, exitOperational)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	// Handle --version before anything else.
	if len(args) > 0 && args[0] == "--version" {
		version.Print("cas-signals")
		return nil
	}
	if len(args) == 0 {
		printHelp(stderr)
		return &exitError{code: exitOperational}
	}

	switch args[0] {
	case "run":
		return runCommand(args[1:], stdout, stderr)
	case "verify":
		return verifyCommand(args[1:], stdout, stderr)
	case "decode":
		return decodeCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printHelp(stderr)
		return nil
	default:
		printHelp(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `cas-signals: verify FLUSH/FUA propagation through Open CAS lazy-write modes.

Usage:
  cas-signals <command> [flags]

Commands:
  run      Run the lazy-writes scenario in each configured cache mode
  verify   Classify the log from a given line once, without driving the cache
  decode   Print a saved run record

Configuration is read from --config or $CAS_SIGNALS_CONFIG; without
either, built-in defaults are used.

Run "cas-signals <command> --help" for command flags.
`)
}

// exitError ends the process with code without printing an error; the
// command has already written its own output.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) ExitCode() int {
	return e.code
}

// commonFlags are accepted by every command that reads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
	color      string
	record     string
}

func (c *commonFlags) add(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.configPath, "config", "", "path to the YAML configuration (default: $"+config.EnvVar+")")
	flagSet.StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flagSet.StringVar(&c.color, "color", "", "summary colour: auto, always, never (default from config)")
	flagSet.StringVar(&c.record, "record", "", "write the run record to this file (.zst and .lz4 compress)")
	flagSet.BoolP("help", "h", false, "show help")
}

// load reads the configuration and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if c.color != "" {
		cfg.Report.Color = c.color
	}
	if c.record != "" {
		cfg.Report.Record = c.record
	}
	return cfg, nil
}

// parse parses args and reports whether help was requested.
func parse(flagSet *pflag.FlagSet, args []string, stderr io.Writer, help func(io.Writer)) (bool, error) {
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			help(stderr)
			flagSet.SetOutput(stderr)
			flagSet.PrintDefaults()
			return true, nil
		}
		return false, err
	}
	if show, _ := flagSet.GetBool("help"); show {
		help(stderr)
		flagSet.SetOutput(stderr)
		flagSet.PrintDefaults()
		return true, nil
	}
	return false, nil
}

// newLogger builds the command logger: text on a terminal, JSON when
// stderr is piped or redirected.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	options := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	return slog.New(handler), nil
}

// finish writes the record file if configured, renders the summary,
// and maps the outcome to an exit status.
func finish(cfg *config.Config, records []*report.Record, summary report.Summary, runErr error, stdout io.Writer, logger *slog.Logger) error {
	if cfg.Report.Record != "" {
		if err := report.WriteRecords(cfg.Report.Record, records); err != nil {
			logger.Error("writing run record failed", "path", cfg.Report.Record, "error", err)
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info("run record written", "path", cfg.Report.Record, "runs", len(records))
		}
	}

	colorMode, err := report.ParseColorMode(cfg.Report.Color)
	if err != nil {
		return err
	}
	if err := report.Render(stdout, records, colorMode); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if summary.Failed() {
		return &exitError{code: exitDiagnostics}
	}
	return nil
}
