// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig describes how to reach the machine under test.
type SSHConfig struct {
	// Address is host:port.
	Address string

	User string

	// IdentityFile is a private key in OpenSSH format.
	IdentityFile string

	// KnownHostsFile verifies the host key. Required: the verifier
	// issues destructive storage commands and must not talk to an
	// unverified host.
	KnownHostsFile string

	DialTimeout time.Duration
}

// SSH runs commands on a remote host, one session per command over a
// single connection.
type SSH struct {
	client *ssh.Client
	logger *slog.Logger
}

// DialSSH connects and authenticates. The caller must Close the
// returned executor.
func DialSSH(ctx context.Context, config SSHConfig, logger *slog.Logger) (*SSH, error) {
	if config.KnownHostsFile == "" {
		return nil, errors.New("ssh: known_hosts file is required")
	}

	key, err := os.ReadFile(config.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("ssh: reading identity: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("ssh: parsing identity %s: %w", config.IdentityFile, err)
	}
	hostKeyCallback, err := knownhosts.New(config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("ssh: loading known hosts: %w", err)
	}

	timeout := config.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("ssh: dialing %s: %w", config.Address, err)
	}
	clientConn, channels, requests, err := ssh.NewClientConn(conn, config.Address, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s: %w", config.Address, err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SSH{
		client: ssh.NewClient(clientConn, channels, requests),
		logger: logger.With("host", config.Address),
	}, nil
}

// Run executes command in a new session. On context cancellation the
// remote process is sent SIGKILL and the session is closed.
func (s *SSH) Run(ctx context.Context, command string) (Result, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return Result{Command: command}, fmt.Errorf("ssh: opening session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	s.logger.Debug("running remote command", "command", command)

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		// Best effort: not every sshd honours signal requests.
		_ = session.Signal(ssh.SIGKILL)
		session.Close()
		<-done
		return Result{Command: command, Stdout: stdout.String(), Stderr: stderr.String()}, ctx.Err()
	}

	result := Result{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if runErr == nil {
		return result, nil
	}
	var exitError *ssh.ExitError
	if errors.As(runErr, &exitError) {
		result.ExitCode = exitError.ExitStatus()
		return result, nil
	}
	return result, fmt.Errorf("ssh: %w", runErr)
}

// Close closes the underlying connection.
func (s *SSH) Close() error {
	return s.client.Close()
}
