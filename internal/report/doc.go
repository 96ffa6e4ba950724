// SPDX-License-Identifier: MPL-2.0

// Package report collects per-file results of a generation run and writes the
// Markdown summary.
package report
