// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/mmichal10/open-cas-linux/lib/cas"
	"github.com/mmichal10/open-cas-linux/lib/remote"
	"github.com/mmichal10/open-cas-linux/lib/report"
	"github.com/mmichal10/open-cas-linux/lib/signal"
)

// EnvVar names the environment variable Load reads the config path
// from.
const EnvVar = "CAS_SIGNALS_CONFIG"

// Environment identifies where the verifier runs.
type Environment string

const (
	// Development is a workstation driving a local or throwaway VM.
	Development Environment = "development"
	// CI is an unattended pipeline; output is never coloured.
	CI Environment = "ci"
	// Lab is a shared machine with real cache hardware.
	Lab Environment = "lab"
)

// Executor selects how commands reach the machine under test.
const (
	ExecutorLocal = "local"
	ExecutorSSH   = "ssh"
)

// Log sources.
const (
	SourceCommand = "command"
	SourceFile    = "file"
)

// Config is the complete verifier configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Target TargetConfig `yaml:"target"`

	Log LogConfig `yaml:"log"`

	// Rules is the inline rule table. Ignored when RulesFile is set.
	Rules []signal.Definition `yaml:"rules"`

	// RulesFile is a JSONC file holding {"rules": [...]}.
	RulesFile string `yaml:"rules_file"`

	Cache CacheConfig `yaml:"cache"`

	Scenario ScenarioConfig `yaml:"scenario"`

	Verify VerifyConfig `yaml:"verify"`

	Report ReportConfig `yaml:"report"`

	// Per-environment overrides, applied after the base config.
	Development *Overrides `yaml:"development,omitempty"`
	CI          *Overrides `yaml:"ci,omitempty"`
	Lab         *Overrides `yaml:"lab,omitempty"`
}

// Overrides contains the sections that can differ per environment.
type Overrides struct {
	Target *TargetConfig `yaml:"target,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
	Cache  *CacheConfig  `yaml:"cache,omitempty"`
	Report *ReportConfig `yaml:"report,omitempty"`
}

// TargetConfig describes the machine under test.
type TargetConfig struct {
	// Executor is "local" or "ssh".
	Executor string `yaml:"executor"`

	// Shell runs local commands. Default: sh
	Shell string `yaml:"shell"`

	SSH SSHConfig `yaml:"ssh"`
}

// SSHConfig configures the SSH executor.
type SSHConfig struct {
	// Address is host:port.
	Address string `yaml:"address"`

	User string `yaml:"user"`

	IdentityFile string `yaml:"identity_file"`

	// KnownHostsFile is required; host keys are always verified.
	KnownHostsFile string `yaml:"known_hosts_file"`

	// DialTimeout bounds connection setup. Default: 10s
	DialTimeout string `yaml:"dial_timeout"`
}

// LogConfig describes the kernel log being watched.
type LogConfig struct {
	// Path of the log on the target. Default: /var/log/messages
	Path string `yaml:"path"`

	// Source is "command" (tail through the executor) or "file" (read
	// directly; local executor only).
	Source string `yaml:"source"`
}

// CacheConfig describes the cache under test.
type CacheConfig struct {
	CacheDevice string `yaml:"cache_device"`

	// CoreDevice should be a scsi_debug disk loaded with opts=1 so every
	// command it receives is logged.
	CoreDevice string `yaml:"core_device"`

	CacheID int `yaml:"cache_id"`
	CoreID  int `yaml:"core_id"`

	// MountPoint for the exported object. Default: /mnt/cas
	MountPoint string `yaml:"mount_point"`

	// Modes to run the scenario in. Only lazy-write modes are allowed.
	// Default: [wb, wo]
	Modes []string `yaml:"modes"`

	// Casadm is the casadm binary. Default: casadm
	Casadm string `yaml:"casadm"`

	// Filesystem created on the core device. Default: xfs
	Filesystem string `yaml:"filesystem"`
}

// ScenarioConfig tunes the lazy-writes scenario.
type ScenarioConfig struct {
	// FileSize of the file written before flushes. Default: 1GiB
	FileSize string `yaml:"file_size"`

	// BigFileSize of the file written before ALRU cleaning. Default: 5GiB
	BigFileSize string `yaml:"big_file_size"`

	Alru AlruConfig `yaml:"alru"`

	// Margin added to the ALRU wait. Default: 5s
	Margin string `yaml:"margin"`
}

// AlruConfig holds the ALRU cleaning parameters set by the scenario.
type AlruConfig struct {
	WakeUp            string `yaml:"wake_up"`
	StalenessTime     string `yaml:"staleness_time"`
	FlushMaxBuffers   int    `yaml:"flush_max_buffers"`
	ActivityThreshold string `yaml:"activity_threshold"`
}

// VerifyConfig controls log reads.
type VerifyConfig struct {
	// ReadAttempts before a verification fails. Default: 3
	ReadAttempts int `yaml:"read_attempts"`

	// RetryDelay between attempts. Default: 1s
	RetryDelay string `yaml:"retry_delay"`
}

// ReportConfig controls run output.
type ReportConfig struct {
	// Record is where the CBOR run record is written; empty disables
	// it. A .zst or .lz4 suffix compresses the file.
	Record string `yaml:"record"`

	// Color is auto, always or never. Default: auto
	Color string `yaml:"color"`
}

// Default returns the configuration used before a file is overlaid.
func Default() *Config {
	return &Config{
		Environment: Development,
		Target: TargetConfig{
			Executor: ExecutorLocal,
			Shell:    "sh",
			SSH: SSHConfig{
				User:           "root",
				IdentityFile:   "${HOME}/.ssh/id_ed25519",
				KnownHostsFile: "${HOME}/.ssh/known_hosts",
				DialTimeout:    "10s",
			},
		},
		Log: LogConfig{
			Path:   "/var/log/messages",
			Source: SourceCommand,
		},
		Rules: signal.DefaultDefinitions(),
		Cache: CacheConfig{
			CacheID:    1,
			CoreID:     1,
			MountPoint: "/mnt/cas",
			Modes:      []string{string(cas.WriteBack), string(cas.WriteOnly)},
			Casadm:     "casadm",
			Filesystem: "xfs",
		},
		Scenario: ScenarioConfig{
			FileSize:    "1GiB",
			BigFileSize: "5GiB",
			Alru: AlruConfig{
				WakeUp:            "5s",
				StalenessTime:     "10s",
				FlushMaxBuffers:   10000,
				ActivityThreshold: "10s",
			},
			Margin: "5s",
		},
		Verify: VerifyConfig{
			ReadAttempts: 3,
			RetryDelay:   "1s",
		},
		Report: ReportConfig{
			Color: string(report.ColorAuto),
		},
	}
}

// Load loads the file named by CAS_SIGNALS_CONFIG. When the variable is
// unset the defaults are returned with variables expanded.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		cfg := Default()
		cfg.applyEnvironmentOverrides()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile overlays the YAML file at path on Default(), applies the
// section for the configured environment, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case CI:
		overrides = c.CI
		if overrides == nil {
			overrides = &Overrides{Report: &ReportConfig{Color: string(report.ColorNever)}}
		}
	case Lab:
		overrides = c.Lab
	}

	if overrides == nil {
		return
	}

	if overrides.Target != nil {
		if overrides.Target.Executor != "" {
			c.Target.Executor = overrides.Target.Executor
		}
		if overrides.Target.Shell != "" {
			c.Target.Shell = overrides.Target.Shell
		}
		if overrides.Target.SSH.Address != "" {
			c.Target.SSH.Address = overrides.Target.SSH.Address
		}
		if overrides.Target.SSH.User != "" {
			c.Target.SSH.User = overrides.Target.SSH.User
		}
		if overrides.Target.SSH.IdentityFile != "" {
			c.Target.SSH.IdentityFile = overrides.Target.SSH.IdentityFile
		}
		if overrides.Target.SSH.KnownHostsFile != "" {
			c.Target.SSH.KnownHostsFile = overrides.Target.SSH.KnownHostsFile
		}
		if overrides.Target.SSH.DialTimeout != "" {
			c.Target.SSH.DialTimeout = overrides.Target.SSH.DialTimeout
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Path != "" {
			c.Log.Path = overrides.Log.Path
		}
		if overrides.Log.Source != "" {
			c.Log.Source = overrides.Log.Source
		}
	}

	if overrides.Cache != nil {
		if overrides.Cache.CacheDevice != "" {
			c.Cache.CacheDevice = overrides.Cache.CacheDevice
		}
		if overrides.Cache.CoreDevice != "" {
			c.Cache.CoreDevice = overrides.Cache.CoreDevice
		}
		if overrides.Cache.CacheID != 0 {
			c.Cache.CacheID = overrides.Cache.CacheID
		}
		if overrides.Cache.CoreID != 0 {
			c.Cache.CoreID = overrides.Cache.CoreID
		}
		if overrides.Cache.MountPoint != "" {
			c.Cache.MountPoint = overrides.Cache.MountPoint
		}
		if len(overrides.Cache.Modes) > 0 {
			c.Cache.Modes = overrides.Cache.Modes
		}
		if overrides.Cache.Casadm != "" {
			c.Cache.Casadm = overrides.Cache.Casadm
		}
		if overrides.Cache.Filesystem != "" {
			c.Cache.Filesystem = overrides.Cache.Filesystem
		}
	}

	if overrides.Report != nil {
		if overrides.Report.Record != "" {
			c.Report.Record = overrides.Report.Record
		}
		if overrides.Report.Color != "" {
			c.Report.Color = overrides.Report.Color
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Target.SSH.User = expandVars(c.Target.SSH.User, vars)
	c.Target.SSH.IdentityFile = expandVars(c.Target.SSH.IdentityFile, vars)
	c.Target.SSH.KnownHostsFile = expandVars(c.Target.SSH.KnownHostsFile, vars)
	c.Log.Path = expandVars(c.Log.Path, vars)
	c.RulesFile = expandVars(c.RulesFile, vars)
	c.Report.Record = expandVars(c.Report.Record, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. vars are
// consulted before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks everything needed to read and classify the log.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]Environment{Development, CI, Lab}, c.Environment) {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	switch c.Target.Executor {
	case ExecutorLocal:
	case ExecutorSSH:
		if c.Target.SSH.Address == "" {
			errs = append(errs, errors.New("target.ssh.address is required for the ssh executor"))
		}
		if c.Target.SSH.User == "" {
			errs = append(errs, errors.New("target.ssh.user is required for the ssh executor"))
		}
		if c.Target.SSH.KnownHostsFile == "" {
			errs = append(errs, errors.New("target.ssh.known_hosts_file is required for the ssh executor"))
		}
		if _, err := time.ParseDuration(c.Target.SSH.DialTimeout); err != nil {
			errs = append(errs, fmt.Errorf("target.ssh.dial_timeout: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("target.executor must be %q or %q, got %q", ExecutorLocal, ExecutorSSH, c.Target.Executor))
	}

	if c.Log.Path == "" {
		errs = append(errs, errors.New("log.path is required"))
	}
	switch c.Log.Source {
	case SourceCommand:
	case SourceFile:
		if c.Target.Executor != ExecutorLocal {
			errs = append(errs, errors.New("log.source file requires the local executor"))
		}
	default:
		errs = append(errs, fmt.Errorf("log.source must be %q or %q, got %q", SourceCommand, SourceFile, c.Log.Source))
	}

	if c.RulesFile == "" {
		if _, err := signal.Compile(c.Rules); err != nil {
			errs = append(errs, fmt.Errorf("rules: %w", err))
		}
	}

	if c.Verify.ReadAttempts < 1 {
		errs = append(errs, errors.New("verify.read_attempts must be at least 1"))
	}
	if _, err := time.ParseDuration(c.Verify.RetryDelay); err != nil {
		errs = append(errs, fmt.Errorf("verify.retry_delay: %w", err))
	}

	if _, err := report.ParseColorMode(c.Report.Color); err != nil {
		errs = append(errs, fmt.Errorf("report.color: %w", err))
	}

	return errors.Join(errs...)
}

// ValidateScenario checks the settings needed to drive a cache, in
// addition to Validate.
func (c *Config) ValidateScenario() error {
	errs := []error{c.Validate()}

	if c.Cache.CacheDevice == "" {
		errs = append(errs, errors.New("cache.cache_device is required"))
	}
	if c.Cache.CoreDevice == "" {
		errs = append(errs, errors.New("cache.core_device is required"))
	}
	if c.Cache.CacheID < 1 {
		errs = append(errs, errors.New("cache.cache_id must be positive"))
	}
	if c.Cache.CoreID < 0 {
		errs = append(errs, errors.New("cache.core_id must not be negative"))
	}
	if c.Cache.MountPoint == "" {
		errs = append(errs, errors.New("cache.mount_point is required"))
	}
	if _, err := c.CacheModes(); err != nil {
		errs = append(errs, err)
	}

	if _, err := humanize.ParseBytes(c.Scenario.FileSize); err != nil {
		errs = append(errs, fmt.Errorf("scenario.file_size: %w", err))
	}
	if _, err := humanize.ParseBytes(c.Scenario.BigFileSize); err != nil {
		errs = append(errs, fmt.Errorf("scenario.big_file_size: %w", err))
	}
	if _, err := time.ParseDuration(c.Scenario.Margin); err != nil {
		errs = append(errs, fmt.Errorf("scenario.margin: %w", err))
	}
	if _, err := c.Scenario.Alru.Params(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// CacheModes returns the configured modes, all of which must have lazy
// writes.
func (c *Config) CacheModes() ([]cas.CacheMode, error) {
	if len(c.Cache.Modes) == 0 {
		return nil, errors.New("cache.modes must not be empty")
	}
	modes := make([]cas.CacheMode, 0, len(c.Cache.Modes))
	for _, value := range c.Cache.Modes {
		mode, err := cas.ParseCacheMode(value)
		if err != nil {
			return nil, fmt.Errorf("cache.modes: %w", err)
		}
		if !mode.LazyWrites() {
			return nil, fmt.Errorf("cache.modes: %s does not use lazy writes", mode)
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

// RuleTable compiles the rules from RulesFile, or the inline table
// when no file is set.
func (c *Config) RuleTable() (signal.Table, error) {
	definitions := c.Rules
	if c.RulesFile != "" {
		var err error
		definitions, err = signal.ReadRulesFile(c.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	return signal.Compile(definitions)
}

// RemoteSSH converts the SSH section for remote.DialSSH.
func (c *Config) RemoteSSH() (remote.SSHConfig, error) {
	timeout, err := time.ParseDuration(c.Target.SSH.DialTimeout)
	if err != nil {
		return remote.SSHConfig{}, fmt.Errorf("target.ssh.dial_timeout: %w", err)
	}
	return remote.SSHConfig{
		Address:        c.Target.SSH.Address,
		User:           c.Target.SSH.User,
		IdentityFile:   c.Target.SSH.IdentityFile,
		KnownHostsFile: c.Target.SSH.KnownHostsFile,
		DialTimeout:    timeout,
	}, nil
}

// RetryDelayDuration parses verify.retry_delay.
func (v VerifyConfig) RetryDelayDuration() (time.Duration, error) {
	return time.ParseDuration(v.RetryDelay)
}

// Sizes parses the scenario file sizes.
func (s ScenarioConfig) Sizes() (file, big uint64, err error) {
	file, err = humanize.ParseBytes(s.FileSize)
	if err != nil {
		return 0, 0, fmt.Errorf("scenario.file_size: %w", err)
	}
	big, err = humanize.ParseBytes(s.BigFileSize)
	if err != nil {
		return 0, 0, fmt.Errorf("scenario.big_file_size: %w", err)
	}
	return file, big, nil
}

// MarginDuration parses scenario.margin.
func (s ScenarioConfig) MarginDuration() (time.Duration, error) {
	margin, err := time.ParseDuration(s.Margin)
	if err != nil {
		return 0, fmt.Errorf("scenario.margin: %w", err)
	}
	return margin, nil
}

// Params converts the ALRU section to cas.AlruParams.
func (a AlruConfig) Params() (cas.AlruParams, error) {
	var errs []error
	parse := func(field, value string) time.Duration {
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("scenario.alru.%s: %w", field, err))
		}
		return d
	}
	params := cas.AlruParams{
		WakeUp:            parse("wake_up", a.WakeUp),
		StalenessTime:     parse("staleness_time", a.StalenessTime),
		FlushMaxBuffers:   a.FlushMaxBuffers,
		ActivityThreshold: parse("activity_threshold", a.ActivityThreshold),
	}
	if a.FlushMaxBuffers < 1 {
		errs = append(errs, errors.New("scenario.alru.flush_max_buffers must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return cas.AlruParams{}, err
	}
	return params, nil
}
