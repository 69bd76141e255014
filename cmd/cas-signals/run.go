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

	"github.com/mmichal10/open-cas-linux/lib/cas"
	"github.com/mmichal10/open-cas-linux/lib/clock"
	"github.com/mmichal10/open-cas-linux/lib/logtail"
	"github.com/mmichal10/open-cas-linux/lib/phase"
	"github.com/mmichal10/open-cas-linux/lib/report"
	"github.com/mmichal10/open-cas-linux/lib/scenario"
)

func runCommand(args []string, stdout, stderr io.Writer) error {
	var common commonFlags
	var modes []string

	flagSet := pflag.NewFlagSet("cas-signals run", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	common.add(flagSet)
	flagSet.StringSliceVar(&modes, "mode", nil, "cache modes to test, e.g. wb,wo (default from config)")

	if help, err := parse(flagSet, args, stderr, printRunHelp); help || err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	if len(modes) > 0 {
		cfg.Cache.Modes = modes
	}
	if err := cfg.ValidateScenario(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	rules, err := cfg.RuleTable()
	if err != nil {
		return err
	}
	cacheModes, err := cfg.CacheModes()
	if err != nil {
		return err
	}
	fileSize, bigFileSize, err := cfg.Scenario.Sizes()
	if err != nil {
		return err
	}
	margin, err := cfg.Scenario.MarginDuration()
	if err != nil {
		return err
	}
	alru, err := cfg.Scenario.Alru.Params()
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
	logger = logger.With("command", "run")

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor, closeTarget, err := openTarget(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTarget()

	realClock := clock.Real()
	collector := report.NewCollector(logger)
	orchestrator := phase.New(phase.Config{
		Reader:       logtail.NewReader(logSource(cfg, executor)),
		Rules:        rules,
		Sink:         collector,
		Clock:        realClock,
		ReadAttempts: cfg.Verify.ReadAttempts,
		RetryDelay:   retryDelay,
		Logger:       logger,
	})

	scenarioConfig := scenario.Config{
		Admin:       &cas.CasAdm{Executor: executor, Binary: cfg.Cache.Casadm, Logger: logger},
		Host:        &cas.Host{Executor: executor},
		CacheDevice: cfg.Cache.CacheDevice,
		CoreDevice:  cfg.Cache.CoreDevice,
		CacheID:     cfg.Cache.CacheID,
		CoreID:      cfg.Cache.CoreID,
		MountPoint:  cfg.Cache.MountPoint,
		Filesystem:  cfg.Cache.Filesystem,
		FileSize:    fileSize,
		BigFileSize: bigFileSize,
		Alru:        alru,
		Margin:      margin,
		Clock:       realClock,
		Logger:      logger,
	}

	var records []*report.Record
	var runErr error
	for _, mode := range cacheModes {
		logger.Info("running lazy-writes scenario", "cache_mode", string(mode))
		record := report.NewRecord(string(mode), cfg.Log.Path, time.Now())
		results, err := scenario.New(scenarioConfig, mode).Run(ctx, orchestrator)
		record.AddResults(results)
		record.FinishedAt = time.Now().UTC()
		records = append(records, record)
		if err != nil {
			record.Error = err.Error()
			logger.Error("scenario aborted", "cache_mode", string(mode), "error", err)
			runErr = fmt.Errorf("cache mode %s: %w", mode, err)
			break
		}
	}

	return finish(cfg, records, collector.Summary(), runErr, stdout, logger)
}

func printRunHelp(w io.Writer) {
	fmt.Fprint(w, `Run the lazy-writes scenario.

For each cache mode the verifier marks the log, starts the cache on the
cache device, formats the core device and adds it as a core, mounts the
exported object, and runs four phases: flush cache, flush core, ALRU
cleaning and core removal. After each phase it classifies the log lines
written during that phase. The cache is stopped afterwards, also when a
phase fails.

Usage:
  cas-signals run [flags]

Examples:
  # Run with a config file against a remote test machine
  cas-signals run --config lab.yaml

  # Only write-back, keeping a compressed record
  cas-signals run --mode wb --record runs/wb.cbor.zst

Flags:
`)
}
