// Package render turns snapshots into human-readable text, Markdown and HTML.
package render

import (
	"fmt"
	"strings"

	"github.com/hpungsan/lifeline/internal/snapshot"
)

// Limits applied by the full (non-brief) text view.
const (
	textChangedFiles = 10
	textOpenTasks    = 8
	textLastPrompts  = 4
)

// Text renders the terminal summary of a snapshot. Brief mode omits the per-item lists.
func Text(s *snapshot.Snapshot, brief bool) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	lines = append(lines, "Agent Lifeline Snapshot")
	add("- created: %s", s.CreatedAt)
	add("- cwd: %s", s.Cwd)
	if focus := deref(s.Focus); focus != "" {
		add("- focus: %s", focus)
	}

	if g := s.Git; g != nil {
		add("- git: %s | dirty=%t | changed=%d | ahead=%d | behind=%d", g.Branch, g.Dirty, g.ChangedCount, g.Ahead, g.Behind)
		if !brief && len(g.ChangedFiles) > 0 {
			lines = append(lines, "- changed files:")
			for _, f := range head(g.ChangedFiles, textChangedFiles) {
				add("  - [%s] %s", f.Status, f.Path)
			}
		}
	} else {
		lines = append(lines, "- git: not detected")
	}

	add("- open tasks: %d", s.Tasks.Count)
	if !brief {
		for _, t := range head(s.Tasks.Open, textOpenTasks) {
			add("  - (%s) %s", t.Source, t.Text)
		}
	}

	if s.Execution.Available {
		source := ""
		if src := deref(s.Execution.Source); src != "" {
			source = " (" + src + ")"
		}
		add("- execution.log%s: %d recent lines", source, len(s.Execution.LastLines))
	} else {
		lines = append(lines, "- execution.log: not found")
	}

	add("- claude history prompts: %d", len(s.Claude.HistoryPrompts))

	if t := s.Claude.Transcript; t != nil {
		add("- transcript: %s", t.File)
		if !brief && len(t.LastUserPrompts) > 0 {
			lines = append(lines, "- last prompts:")
			for _, p := range head(t.LastUserPrompts, textLastPrompts) {
				add("  - %s", p)
			}
		}
	} else {
		lines = append(lines, "- transcript: not found")
	}

	return strings.Join(lines, "\n")
}

// head returns at most the first n elements of items.
func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// last returns at most the final n elements of items.
func last[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
