// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mmichal10/open-cas-linux/lib/clock"
	"github.com/mmichal10/open-cas-linux/lib/config"
	"github.com/mmichal10/open-cas-linux/lib/logtail"
	"github.com/mmichal10/open-cas-linux/lib/phase"
	"github.com/mmichal10/open-cas-linux/lib/report"
)

func verifyCommand(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	var from int
	var logPath, rulesFile string

	flagSet := pflag.NewFlagSet("cas-signals verify", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	common.add(flagSet)
	flagSet.IntVar(&from, "from", 1, "first log line (1-based) of the window")
	flagSet.StringVar(&logPath, "log", "", "log to read; a local path reads the file directly (default from config)")
	flagSet.StringVar(&rulesFile, "rules", "", "JSONC rules file (default from config)")

	if help, err := parse(flagSet, args, stderr, printVerifyHelp); help || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	if from < 1 {
		return fmt.Errorf("--from must be at least 1, got %d", from)
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if logPath != "" {
		cfg.Log.Path = logPath
		if cfg.Target.Executor == config.ExecutorLocal {
			cfg.Log.Source = config.SourceFile
		}
	}
	if rulesFile != "" {
		cfg.RulesFile = rulesFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	rules, err := cfg.RuleTable()
	if err != nil {
		return err
	}
	retryDelay, err := cfg.Verify.RetryDelayDuration()
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, common.logLevel)
	if err != nil {
		return err
	}
	logger = logger.With("command", "verify", "log", cfg.Log.Path)

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor, closeTarget, err := openTarget(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTarget()

	collector := report.NewCollector(logger)
	orchestrator := phase.New(phase.Config{
		Reader:       logtail.NewReaderAt(logSource(cfg, executor), from),
		Rules:        rules,
		Sink:         collector,
		Clock:        clock.Real(),
		ReadAttempts: cfg.Verify.ReadAttempts,
		RetryDelay:   retryDelay,
		Logger:       logger,
	})

	record := report.NewRecord("", cfg.Log.Path, time.Now())
	result, runErr := orchestrator.RunPhase(ctx, phase.Phase{Name: "verify"})
	record.AddResults([]phase.Result{result})
	record.FinishedAt = time.Now().UTC()
	if runErr != nil {
		record.Error = runErr.Error()
	} else {
		logger.Info("next window starts at", "line", orchestrator.Cursor())
	}

	return finish(cfg, []*report.Record{record}, collector.Summary(), runErr, stdout, logger)
}

func printVerifyHelp(w io.Writer) {
	fmt.Fprint(w, `Classify a window of the log once.

Reads every line from --from to the current end of the log, counts the
lines matching each rule and reports a verdict per rule. Nothing on the
target is changed. The log line after the window is logged so the next
invocation can continue from there.

Usage:
  cas-signals verify [flags]

Examples:
  # Check a saved copy of the log from line 1200
  cas-signals verify --log messages.txt --from 1200

  # Check the remote syslog of the configured target
  cas-signals verify --config lab.yaml --from 53817

Flags:
`)
}
