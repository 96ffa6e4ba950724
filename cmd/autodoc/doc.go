// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for autodoc.
//
// The command tree is built around an App that carries the configuration
// provider, the API client factory and the output streams, so tests can run
// commands end to end without touching the user's environment.
package cmd
