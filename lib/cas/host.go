// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cas

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mmichal10/open-cas-linux/lib/remote"
)

// Host runs filesystem and block device commands on the machine under
// test.
type Host struct {
	Executor remote.Executor
}

func (h *Host) expect(ctx context.Context, args ...string) (remote.Result, error) {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = remote.Quote(arg)
	}
	return remote.Expect(ctx, h.Executor, strings.Join(quoted, " "))
}

// forceFlags are the per-filesystem mkfs options that overwrite an
// existing filesystem signature.
var forceFlags = map[string]string{
	"xfs":   "-f",
	"ext3":  "-F",
	"ext4":  "-F",
	"btrfs": "-f",
}

// MakeFilesystem creates a filesystem of the given type on device,
// overwriting whatever was there.
func (h *Host) MakeFilesystem(ctx context.Context, device, filesystem string) error {
	args := []string{"mkfs", "-t", filesystem}
	if flag, ok := forceFlags[filesystem]; ok {
		args = append(args, flag)
	}
	args = append(args, device)
	if _, err := h.expect(ctx, args...); err != nil {
		return fmt.Errorf("creating %s on %s: %w", filesystem, device, err)
	}
	return nil
}

// IsMounted reports whether device is mounted anywhere.
func (h *Host) IsMounted(ctx context.Context, device string) (bool, error) {
	command := "findmnt --source " + remote.Quote(device)
	result, err := h.Executor.Run(ctx, command)
	if err != nil {
		return false, fmt.Errorf("running %q: %w", command, err)
	}
	switch result.ExitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &remote.CommandError{Command: command, ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
}

// Mount mounts device on mountPoint, creating the directory if needed.
func (h *Host) Mount(ctx context.Context, device, mountPoint string) error {
	if _, err := h.expect(ctx, "mkdir", "-p", mountPoint); err != nil {
		return fmt.Errorf("creating mount point: %w", err)
	}
	if _, err := h.expect(ctx, "mount", device, mountPoint); err != nil {
		return fmt.Errorf("mounting %s on %s: %w", device, mountPoint, err)
	}
	return nil
}

// Unmount unmounts a device or mount point.
func (h *Host) Unmount(ctx context.Context, target string) error {
	if _, err := h.expect(ctx, "umount", target); err != nil {
		return fmt.Errorf("unmounting %s: %w", target, err)
	}
	return nil
}

// CreateRandomFile writes size bytes of random data to path.
func (h *Host) CreateRandomFile(ctx context.Context, path string, size uint64) error {
	_, err := h.expect(ctx,
		"dd", "if=/dev/urandom", "of="+path, "bs=1M",
		fmt.Sprintf("count=%d", size), "iflag=count_bytes,fullblock", "status=none",
	)
	if err != nil {
		return fmt.Errorf("creating %s file %s: %w", humanize.IBytes(size), path, err)
	}
	return nil
}

// RemoveFile removes path. A missing file is not an error.
func (h *Host) RemoveFile(ctx context.Context, path string) error {
	if _, err := h.expect(ctx, "rm", "-f", path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Sync flushes filesystem buffers on the host.
func (h *Host) Sync(ctx context.Context) error {
	if _, err := h.expect(ctx, "sync"); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}
