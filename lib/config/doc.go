// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the warden configuration and Matrix credentials.
//
// Configuration comes from a single file named by the WARDEN_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). There is no search path. YAML is the primary format;
// files ending in .json or .jsonc are read as JSON with comments.
//
// ${VAR} and ${VAR:-default} references anywhere in the file are
// expanded from the environment before decoding. Values omitted from
// the file keep the defaults from [Default], and the result is checked
// with struct tag validation before it is returned.
//
// Credentials are kept out of the configuration file. They live in a
// KEY=VALUE credential file (see [ReadCredentials]) written by
// "warden login" with mode 0600.
package config
