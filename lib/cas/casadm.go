// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mmichal10/open-cas-linux/lib/remote"
)

// Admin is the cache administration surface used by the scenario.
type Admin interface {
	StartCache(ctx context.Context, cache Cache) error
	AddCore(ctx context.Context, core Core) (string, error)
	SetCleaningPolicy(ctx context.Context, cacheID int, policy CleaningPolicy) error
	SetAlruParams(ctx context.Context, cacheID int, params AlruParams) error
	GetAlruParams(ctx context.Context, cacheID int) (AlruParams, error)
	FlushCache(ctx context.Context, cacheID int) error
	FlushCore(ctx context.Context, cacheID, coreID int) error
	RemoveCore(ctx context.Context, cacheID, coreID int) error
	StopCache(ctx context.Context, cacheID int) error
}

// Cache describes a cache instance to start.
type Cache struct {
	ID     int
	Device string
	Mode   CacheMode

	// Force overwrites existing metadata on the cache device.
	Force bool
}

// Core describes a core device to attach to a cache.
type Core struct {
	CacheID int
	ID      int
	Device  string
}

// ExportedObject returns the block device casadm exposes for a core.
func ExportedObject(cacheID, coreID int) string {
	return fmt.Sprintf("/dev/cas%d-%d", cacheID, coreID)
}

// CasAdm implements Admin by running casadm through an executor.
type CasAdm struct {
	Executor remote.Executor

	// Binary is the casadm command. Defaults to "casadm".
	Binary string

	Logger *slog.Logger
}

var _ Admin = (*CasAdm)(nil)

func (c *CasAdm) run(ctx context.Context, args ...string) (remote.Result, error) {
	binary := c.Binary
	if binary == "" {
		binary = "casadm"
	}
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, remote.Quote(binary))
	for _, arg := range args {
		quoted = append(quoted, remote.Quote(arg))
	}
	command := strings.Join(quoted, " ")
	if c.Logger != nil {
		c.Logger.Debug("casadm", "command", command)
	}
	return remote.Expect(ctx, c.Executor, command)
}

// StartCache starts cache on its device in the requested mode.
func (c *CasAdm) StartCache(ctx context.Context, cache Cache) error {
	args := []string{
		"--start-cache",
		"--cache-device", cache.Device,
		"--cache-id", strconv.Itoa(cache.ID),
		"--cache-mode", string(cache.Mode),
	}
	if cache.Force {
		args = append(args, "--force")
	}
	if _, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("starting cache %d on %s: %w", cache.ID, cache.Device, err)
	}
	return nil
}

// AddCore attaches core and returns the path of its exported object.
func (c *CasAdm) AddCore(ctx context.Context, core Core) (string, error) {
	_, err := c.run(ctx,
		"--add-core",
		"--cache-id", strconv.Itoa(core.CacheID),
		"--core-id", strconv.Itoa(core.ID),
		"--core-device", core.Device,
	)
	if err != nil {
		return "", fmt.Errorf("adding core %s to cache %d: %w", core.Device, core.CacheID, err)
	}
	return ExportedObject(core.CacheID, core.ID), nil
}

// SetCleaningPolicy switches the cleaning policy of a cache.
func (c *CasAdm) SetCleaningPolicy(ctx context.Context, cacheID int, policy CleaningPolicy) error {
	_, err := c.run(ctx,
		"--set-param", "--name", "cleaning",
		"--cache-id", strconv.Itoa(cacheID),
		"--policy", string(policy),
	)
	if err != nil {
		return fmt.Errorf("setting cleaning policy %s on cache %d: %w", policy, cacheID, err)
	}
	return nil
}

// SetAlruParams writes the ALRU tunables. casadm takes the wake-up
// and staleness times in seconds and the activity threshold in
// milliseconds.
func (c *CasAdm) SetAlruParams(ctx context.Context, cacheID int, params AlruParams) error {
	_, err := c.run(ctx,
		"--set-param", "--name", "cleaning-alru",
		"--cache-id", strconv.Itoa(cacheID),
		"--wake-up", strconv.FormatInt(int64(params.WakeUp/time.Second), 10),
		"--staleness-time", strconv.FormatInt(int64(params.StalenessTime/time.Second), 10),
		"--flush-max-buffers", strconv.Itoa(params.FlushMaxBuffers),
		"--activity-threshold", strconv.FormatInt(params.ActivityThreshold.Milliseconds(), 10),
	)
	if err != nil {
		return fmt.Errorf("setting ALRU parameters on cache %d: %w", cacheID, err)
	}
	return nil
}

// GetAlruParams reads the ALRU tunables back from the cache.
func (c *CasAdm) GetAlruParams(ctx context.Context, cacheID int) (AlruParams, error) {
	result, err := c.run(ctx,
		"--get-param", "--name", "cleaning-alru",
		"--cache-id", strconv.Itoa(cacheID),
		"--output-format", "csv",
	)
	if err != nil {
		return AlruParams{}, fmt.Errorf("reading ALRU parameters of cache %d: %w", cacheID, err)
	}
	return ParseAlruParams(result.Stdout)
}

// FlushCache writes all dirty data of a cache to its cores.
func (c *CasAdm) FlushCache(ctx context.Context, cacheID int) error {
	if _, err := c.run(ctx, "--flush-cache", "--cache-id", strconv.Itoa(cacheID)); err != nil {
		return fmt.Errorf("flushing cache %d: %w", cacheID, err)
	}
	return nil
}

// FlushCore writes the dirty data of one core.
func (c *CasAdm) FlushCore(ctx context.Context, cacheID, coreID int) error {
	_, err := c.run(ctx,
		"--flush-cache",
		"--cache-id", strconv.Itoa(cacheID),
		"--core-id", strconv.Itoa(coreID),
	)
	if err != nil {
		return fmt.Errorf("flushing core %d of cache %d: %w", coreID, cacheID, err)
	}
	return nil
}

// RemoveCore detaches a core, flushing its dirty data first.
func (c *CasAdm) RemoveCore(ctx context.Context, cacheID, coreID int) error {
	_, err := c.run(ctx,
		"--remove-core",
		"--cache-id", strconv.Itoa(cacheID),
		"--core-id", strconv.Itoa(coreID),
	)
	if err != nil {
		return fmt.Errorf("removing core %d from cache %d: %w", coreID, cacheID, err)
	}
	return nil
}

// StopCache stops a cache, flushing dirty data.
func (c *CasAdm) StopCache(ctx context.Context, cacheID int) error {
	if _, err := c.run(ctx, "--stop-cache", "--cache-id", strconv.Itoa(cacheID)); err != nil {
		return fmt.Errorf("stopping cache %d: %w", cacheID, err)
	}
	return nil
}
