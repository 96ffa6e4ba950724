// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of processing one file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

type (
	// Result is the record kept for one processed file.
	Result struct {
		File    string `json:"file"`
		DocPath string `json:"doc_path,omitempty"`
		Status  Status `json:"status"`
		Error   string `json:"error,omitempty"`
	}

	// Counts are the totals derived from a result list.
	Counts struct {
		Total     int `json:"total"`
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
		Skipped   int `json:"skipped"`
	}

	// Summary is the outcome of one run.
	Summary struct {
		RunID       string    `json:"run_id"`
		GeneratedAt time.Time `json:"generated_at"`
		DocType     string    `json:"doc_type"`
		SourceRoot  string    `json:"source_root"`
		OutputDir   string    `json:"output_dir"`
		DryRun      bool      `json:"dry_run,omitempty"`
		Aborted     string    `json:"aborted,omitempty"`
		Discovered  int       `json:"discovered"`
		Stale       int       `json:"stale"`
		Stats       Counts    `json:"counts"`
		Results     []Result  `json:"results"`
	}
)

// New starts an empty summary with a fresh run id.
func New(docType string, now time.Time) *Summary {
	return &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		DocType:     docType,
		Results:     []Result{},
	}
}

// Success returns a successful result.
func Success(file, docPath string) Result {
	return Result{File: file, DocPath: docPath, Status: StatusSucceeded}
}

// Failure returns a failed result carrying err's message.
func Failure(file string, err error) Result {
	return Result{File: file, Status: StatusFailed, Error: err.Error()}
}

// Skip returns a skipped result with a reason.
func Skip(file, reason string) Result {
	return Result{File: file, Status: StatusSkipped, Error: reason}
}

// Add appends r and refreshes the counts.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
	s.Stats = s.Counts()
}

// Counts derives the totals from the result list.
func (s *Summary) Counts() Counts {
	c := Counts{Total: len(s.Results)}
	for _, r := range s.Results {
		switch r.Status {
		case StatusSucceeded:
			c.Succeeded++
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// Filter returns the results with the given status, in processing order.
func (s *Summary) Filter(status Status) []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Markdown renders the summary document.
func (s *Summary) Markdown() string {
	c := s.Counts()

	var b strings.Builder
	b.WriteString("# Documentation Generation Summary\n\n")
	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- **Generated:** %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Documentation type:** %s\n", s.DocType)
	if s.SourceRoot != "" {
		fmt.Fprintf(&b, "- **Source root:** `%s`\n", s.SourceRoot)
	}
	if s.DryRun {
		b.WriteString("- **Mode:** dry run (no API calls, no files written)\n")
	}
	if s.Aborted != "" {
		fmt.Fprintf(&b, "- **Aborted:** %s\n", escapeCell(s.Aborted))
	}

	b.WriteString("\n## Statistics\n\n")
	fmt.Fprintf(&b, "- Source files matched: %d\n", s.Discovered)
	fmt.Fprintf(&b, "- Stale files: %d\n", s.Stale)
	fmt.Fprintf(&b, "- Total files processed: %d\n", c.Total)
	fmt.Fprintf(&b, "- Successful: %d\n", c.Succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n", c.Failed)
	fmt.Fprintf(&b, "- Skipped: %d\n", c.Skipped)

	if ok := s.Filter(StatusSucceeded); len(ok) > 0 {
		b.WriteString("\n## Generated Documentation\n\n")
		b.WriteString("| Source file | Documentation |\n| --- | --- |\n")
		for _, r := range ok {
			fmt.Fprintf(&b, "| `%s` | [%s](%s) |\n", r.File, r.DocPath, s.link(r.DocPath))
		}
	}

	if failed := s.Filter(StatusFailed); len(failed) > 0 {
		b.WriteString("\n## Failures\n\n")
		b.WriteString("| Source file | Error |\n| --- | --- |\n")
		for _, r := range failed {
			fmt.Fprintf(&b, "| `%s` | %s |\n", r.File, escapeCell(r.Error))
		}
	}

	if skipped := s.Filter(StatusSkipped); len(skipped) > 0 {
		b.WriteString("\n## Skipped\n\n")
		b.WriteString("| Source file | Reason |\n| --- | --- |\n")
		for _, r := range skipped {
			fmt.Fprintf(&b, "| `%s` | %s |\n", r.File, escapeCell(r.Error))
		}
	}

	return b.String()
}

// link makes docPath relative to the output directory, where the summary
// file normally lives.
func (s *Summary) link(docPath string) string {
	if s.OutputDir == "" {
		return filepath.ToSlash(docPath)
	}
	rel, err := filepath.Rel(s.OutputDir, docPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(docPath)
	}
	return filepath.ToSlash(rel)
}

// WriteMarkdown writes the summary to path, creating parent directories.
func WriteMarkdown(s *Summary, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating summary directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.Markdown()), 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
