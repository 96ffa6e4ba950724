// SPDX-License-Identifier: MPL-2.0

// Package generator runs the documentation pipeline: discover source files,
// decide which are stale, ask the chat-completion API for one document per
// stale file, write the documents and the run summary.
//
// Files are processed one at a time. Requests are paced by a fixed delay and
// never retried. Per-file failures are recorded in the summary; a rejected
// credential aborts the run.
package generator
