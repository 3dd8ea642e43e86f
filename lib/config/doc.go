// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the profile configuration file.
//
// A profile lives in a single directory, RAD_HOME (default
// ~/.radicle), and its configuration in config.yaml inside it. There
// is no other search path.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${RAD_HOME}, and ${VAR:-default} patterns are expanded.
// No environment variable overrides a value set in the file.
//
// Key exports:
//
//   - [Config] -- identity, paths, editor, and sync settings
//   - [Default] -- a Config rooted at a given profile directory
//   - [Home] -- the profile directory from RAD_HOME
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
