// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/mmichal10/open-cas-linux/lib/config"
	"github.com/mmichal10/open-cas-linux/lib/logtail"
	"github.com/mmichal10/open-cas-linux/lib/remote"
)

// openTarget returns the executor for the machine under test and a
// function releasing it.
func openTarget(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote.Executor, func(), error) {
	if cfg.Target.Executor != config.ExecutorSSH {
		return &remote.Local{Shell: cfg.Target.Shell, Logger: logger}, func() {}, nil
	}

	sshConfig, err := cfg.RemoteSSH()
	if err != nil {
		return nil, nil, err
	}
	client, err := remote.DialSSH(ctx, sshConfig, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to target", "address", sshConfig.Address, "user", sshConfig.User)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing ssh connection", "error", err)
		}
	}, nil
}

// logSource returns the configured source for the watched log.
func logSource(cfg *config.Config, executor remote.Executor) logtail.Source {
	if cfg.Log.Source == config.SourceFile {
		return &logtail.FileSource{Path: cfg.Log.Path}
	}
	return &logtail.CommandSource{Executor: executor, Path: cfg.Log.Path}
}
