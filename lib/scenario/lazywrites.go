// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mmichal10/open-cas-linux/lib/cas"
	"github.com/mmichal10/open-cas-linux/lib/clock"
	"github.com/mmichal10/open-cas-linux/lib/phase"
)

// Host is the filesystem surface the scenario needs on the target.
type Host interface {
	MakeFilesystem(ctx context.Context, device, filesystem string) error
	IsMounted(ctx context.Context, device string) (bool, error)
	Mount(ctx context.Context, device, mountPoint string) error
	Unmount(ctx context.Context, target string) error
	CreateRandomFile(ctx context.Context, path string, size uint64) error
	RemoveFile(ctx context.Context, path string) error
	Sync(ctx context.Context) error
}

var _ Host = (*cas.Host)(nil)

// testFileName is created on the exported object by every phase.
const testFileName = "tmp.file"

// teardownTimeout bounds cleanup after the run context is cancelled.
const teardownTimeout = 2 * time.Minute

// Config holds everything the scenario needs except the cache mode.
type Config struct {
	Admin cas.Admin
	Host  Host

	CacheDevice string
	CoreDevice  string
	CacheID     int
	CoreID      int
	MountPoint  string

	// Filesystem created on the core device. Defaults to xfs.
	Filesystem string

	// FileSize is written before the flush phases and before removing
	// the core; BigFileSize before ALRU cleaning.
	FileSize    uint64
	BigFileSize uint64

	// Alru parameters set for the cleaning phase.
	Alru cas.AlruParams

	// Margin is added to the ALRU wait time.
	Margin time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// LazyWrites runs the scenario for one cache mode. It is single-use.
type LazyWrites struct {
	config Config
	mode   cas.CacheMode
	logger *slog.Logger

	started bool
	mounted bool
}

// New returns a scenario for mode.
func New(config Config, mode cas.CacheMode) *LazyWrites {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Filesystem == "" {
		config.Filesystem = "xfs"
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &LazyWrites{
		config: config,
		mode:   mode,
		logger: config.Logger.With("cache_mode", string(mode)),
	}
}

// Run marks the log, sets the cache up, runs the phases through
// orchestrator, and tears down. The results of every attempted phase
// are returned alongside any error; teardown failures are joined to it.
func (s *LazyWrites) Run(ctx context.Context, orchestrator *phase.Orchestrator) ([]phase.Result, error) {
	if err := orchestrator.Mark(ctx); err != nil {
		return nil, fmt.Errorf("marking log: %w", err)
	}

	var results []phase.Result
	err := s.Setup(ctx)
	if err == nil {
		results, err = orchestrator.Run(ctx, s.Phases())
	}

	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	if teardownErr := s.Teardown(teardownCtx); teardownErr != nil {
		err = errors.Join(err, teardownErr)
	}
	return results, err
}

// Setup starts the cache, formats and attaches the core, mounts the
// exported object, and disables cleaning so only explicit flushes
// write back dirty data.
func (s *LazyWrites) Setup(ctx context.Context) error {
	c := s.config

	s.logger.Info("starting cache", "device", c.CacheDevice, "cache_id", c.CacheID)
	if err := c.Admin.StartCache(ctx, cas.Cache{ID: c.CacheID, Device: c.CacheDevice, Mode: s.mode, Force: true}); err != nil {
		return err
	}
	s.started = true

	s.logger.Info("creating filesystem on core device", "device", c.CoreDevice, "filesystem", c.Filesystem)
	if err := c.Host.MakeFilesystem(ctx, c.CoreDevice, c.Filesystem); err != nil {
		return err
	}

	exported, err := c.Admin.AddCore(ctx, cas.Core{CacheID: c.CacheID, ID: c.CoreID, Device: c.CoreDevice})
	if err != nil {
		return err
	}

	mounted, err := c.Host.IsMounted(ctx, exported)
	if err != nil {
		return err
	}
	if mounted {
		s.logger.Info("exported object already mounted, unmounting", "device", exported)
		if err := c.Host.Unmount(ctx, exported); err != nil {
			return err
		}
	}
	if err := c.Host.Mount(ctx, exported, c.MountPoint); err != nil {
		return err
	}
	s.mounted = true
	s.logger.Info("exported object mounted", "device", exported, "mount_point", c.MountPoint)

	return c.Admin.SetCleaningPolicy(ctx, c.CacheID, cas.CleaningNop)
}

// Phases returns the four verification phases in order.
func (s *LazyWrites) Phases() []phase.Phase {
	c := s.config
	sync := phase.BarrierFunc(c.Host.Sync)
	remove := s.removeTestFile

	return []phase.Phase{
		{
			Name: "flush cache",
			Action: func(ctx context.Context) error {
				if err := s.writeTestFile(ctx, c.FileSize); err != nil {
					return err
				}
				return c.Admin.FlushCache(ctx, c.CacheID)
			},
			Barrier: sync,
			After:   remove,
		},
		{
			Name: "flush core",
			Action: func(ctx context.Context) error {
				if err := s.writeTestFile(ctx, c.FileSize); err != nil {
					return err
				}
				return c.Admin.FlushCore(ctx, c.CacheID, c.CoreID)
			},
			Barrier: sync,
			After:   remove,
		},
		{
			Name: "alru cleaning",
			Action: func(ctx context.Context) error {
				if err := c.Admin.SetCleaningPolicy(ctx, c.CacheID, cas.CleaningAlru); err != nil {
					return err
				}
				if err := c.Admin.SetAlruParams(ctx, c.CacheID, c.Alru); err != nil {
					return err
				}
				return s.writeTestFile(ctx, c.BigFileSize)
			},
			Barrier: &phase.Sleep{
				Clock:    c.Clock,
				Duration: s.alruWaitTime,
				OnWait: func(delay time.Duration) {
					s.logger.Info("waiting for ALRU cleaning", "wait", delay.String())
				},
			},
			After: remove,
		},
		{
			Name: "remove core",
			Action: func(ctx context.Context) error {
				if err := s.writeTestFile(ctx, c.FileSize); err != nil {
					return err
				}
				if err := c.Host.Unmount(ctx, c.MountPoint); err != nil {
					return err
				}
				s.mounted = false
				return c.Admin.RemoveCore(ctx, c.CacheID, c.CoreID)
			},
			Barrier: sync,
		},
	}
}

// Teardown unmounts the exported object if still mounted and stops the
// cache. Every step is attempted; failures are joined.
func (s *LazyWrites) Teardown(ctx context.Context) error {
	c := s.config
	var errs []error

	if s.mounted {
		if err := c.Host.Unmount(ctx, c.MountPoint); err != nil {
			s.logger.Warn("teardown: unmount failed", "error", err)
			errs = append(errs, err)
		} else {
			s.mounted = false
		}
	}
	if s.started {
		s.logger.Info("stopping cache", "cache_id", c.CacheID)
		if err := c.Admin.StopCache(ctx, c.CacheID); err != nil {
			s.logger.Warn("teardown: stopping cache failed", "error", err)
			errs = append(errs, err)
		} else {
			s.started = false
		}
	}
	return errors.Join(errs...)
}

func (s *LazyWrites) testFilePath() string {
	return path.Join(s.config.MountPoint, testFileName)
}

// writeTestFile creates the test file and syncs so its data is dirty in
// the cache before the phase's trigger runs.
func (s *LazyWrites) writeTestFile(ctx context.Context, size uint64) error {
	s.logger.Info("writing test file", "path", s.testFilePath(), "size", humanize.IBytes(size))
	if err := s.config.Host.CreateRandomFile(ctx, s.testFilePath(), size); err != nil {
		return err
	}
	return s.config.Host.Sync(ctx)
}

func (s *LazyWrites) removeTestFile(ctx context.Context) error {
	return s.config.Host.RemoveFile(ctx, s.testFilePath())
}

// alruWaitTime reads the parameters back from the cache so the wait
// matches what casadm actually applied.
func (s *LazyWrites) alruWaitTime(ctx context.Context) (time.Duration, error) {
	params, err := s.config.Admin.GetAlruParams(ctx, s.config.CacheID)
	if err != nil {
		return 0, err
	}
	return params.WaitTime(s.config.Margin), nil
}
