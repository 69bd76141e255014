// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for cas-signals.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the CAS_SIGNALS_CONFIG environment variable (via
// [Load]). Values in the file are overlaid on [Default]; there is no
// file discovery and no per-field environment overrides.
//
// The file may contain environment sections (development, ci, lab) that
// override the target, log, cache and report sections when
// [Config].Environment matches. The ci environment disables colour
// unless its section says otherwise.
//
// ${HOME} and ${VAR:-default} patterns are expanded in path fields
// after loading. Sizes are written the way humans write them ("1GiB",
// "512MB") and parsed with go-humanize; durations use Go syntax ("5s").
//
// [Config.Validate] covers what log verification alone needs;
// [Config.ValidateScenario] adds the cache devices and scenario
// parameters.
package config
