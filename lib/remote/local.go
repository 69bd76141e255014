// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Local runs commands on this machine via sh -c.
type Local struct {
	// Shell is the shell binary, resolved via PATH. Defaults to "sh".
	Shell string

	Logger *slog.Logger
}

// Run executes command in its own process group. When ctx is
// cancelled the whole group receives SIGKILL, so children of the shell
// (dd, casadm) do not outlive the step.
func (l *Local) Run(ctx context.Context, command string) (Result, error) {
	shell := l.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	if l.Logger != nil {
		l.Logger.Debug("running command", "command", command)
	}

	err := cmd.Run()
	result := Result{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) && ctx.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, err
}
