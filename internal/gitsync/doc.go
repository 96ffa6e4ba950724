// SPDX-License-Identifier: MPL-2.0

// Package gitsync brings a fork up to date: fetch the upstream remote, merge
// its branch, push the result to origin. The git commands run through the
// mvdan.cc/sh interpreter in the repository directory.
package gitsync
