// SPDX-License-Identifier: MPL-2.0

// Package discovery selects the source files to document and derives the
// documentation path for each of them.
//
// Patterns use doublestar syntax and are matched against slash-separated
// paths relative to the source root, so "**/*.go" selects every Go file and
// "**/vendor/**" prunes every vendor directory.
package discovery
