// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors carry the failed operation, the resource involved and remediation
// hints. A small catalog of Markdown help pages covers the failures users hit
// most often (missing API credentials, rejected credentials, bad config) and
// is rendered to the terminal with glamour.
package issue
