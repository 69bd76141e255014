// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remotetest provides a scripted remote.Executor for tests.
package remotetest

import (
	"context"
	"strings"
	"sync"

	"github.com/mmichal10/open-cas-linux/lib/remote"
)

// Handler produces the outcome of a command. It is called with the full
// command line.
type Handler func(command string) (remote.Result, error)

// Script is a remote.Executor that answers commands from registered
// handlers and records every command it receives. Commands with no
// matching handler succeed with empty output.
type Script struct {
	mu       sync.Mutex
	handlers []prefixHandler
	commands []string
}

type prefixHandler struct {
	prefix  string
	handler Handler
}

// On registers handler for commands starting with prefix. Later
// registrations take precedence over earlier ones.
func (s *Script) On(prefix string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, prefixHandler{prefix: prefix, handler: handler})
}

// Reply registers a fixed stdout for commands starting with prefix.
func (s *Script) Reply(prefix, stdout string) {
	s.On(prefix, func(command string) (remote.Result, error) {
		return remote.Result{Command: command, Stdout: stdout}, nil
	})
}

// Fail registers a non-zero exit for commands starting with prefix.
func (s *Script) Fail(prefix string, exitCode int, stderr string) {
	s.On(prefix, func(command string) (remote.Result, error) {
		return remote.Result{Command: command, ExitCode: exitCode, Stderr: stderr}, nil
	})
}

// Run implements remote.Executor.
func (s *Script) Run(ctx context.Context, command string) (remote.Result, error) {
	s.mu.Lock()
	s.commands = append(s.commands, command)
	var handler Handler
	for i := len(s.handlers) - 1; i >= 0; i-- {
		if strings.HasPrefix(command, s.handlers[i].prefix) {
			handler = s.handlers[i].handler
			break
		}
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return remote.Result{Command: command}, err
	}
	if handler == nil {
		return remote.Result{Command: command}, nil
	}
	return handler(command)
}

// Commands returns every command run so far, in order.
func (s *Script) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}
