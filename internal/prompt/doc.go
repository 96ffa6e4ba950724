// SPDX-License-Identifier: MPL-2.0

// Package prompt turns a source file into chat messages for one
// documentation type. Types live in a TOML catalog embedded in the binary;
// a user file can add types or replace embedded ones.
package prompt
