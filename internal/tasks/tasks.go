// Package tasks finds open task lines in a project's markdown task files.
package tasks

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
)

// MaxOpen caps the items kept in TaskSummary.Open. Count is not capped.
const MaxOpen = 30

// CandidateFiles are scanned in this order, relative to the project directory.
var CandidateFiles = []string{"TODO.md", "todo.md", "TASKS.md", "tasks.md", "PLAN.md", "plan.md"}

const ws = snapshot.SpaceClass

var (
	// checkboxRegex matches an unchecked markdown checkbox: "- [ ] text" or "* [ ] text".
	checkboxRegex = regexp.MustCompile(`^` + ws + `*[-*]` + ws + `+\[` + ws + `\]` + ws + `+(.+)$`)

	// todoRegex matches a TODO marker anywhere in the line, case-insensitive.
	todoRegex = regexp.MustCompile(`(?i)\bTODO(?:[:-]|` + ws + `)+(.+)`)
)

// Scan reads every candidate file present in dir and collects open tasks.
// Missing or unreadable files contribute nothing.
func Scan(dir string, logger *slog.Logger) snapshot.TaskSummary {
	logger = logging.OrDiscard(logger)
	items := []snapshot.TaskItem{}

	for _, name := range CandidateFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Debug("task file unreadable", "path", path, "error", err)
			}
			continue
		}

		source := relativePath(dir, path)
		for _, line := range strings.Split(string(data), "\n") {
			if text, ok := MatchLine(strings.TrimSuffix(line, "\r")); ok {
				items = append(items, snapshot.TaskItem{Source: source, Text: text})
			}
		}
	}

	summary := snapshot.TaskSummary{Count: len(items), Open: items}
	if len(summary.Open) > MaxOpen {
		summary.Open = summary.Open[:MaxOpen]
	}
	return summary
}

// MatchLine extracts the task text from a single line.
// A checkbox match takes priority and at most one item is produced per line.
func MatchLine(line string) (string, bool) {
	if m := checkboxRegex.FindStringSubmatch(line); m != nil {
		return snapshot.Compact(m[1]), true
	}
	if m := todoRegex.FindStringSubmatch(line); m != nil {
		return snapshot.Compact(m[1]), true
	}
	return "", false
}

// relativePath returns target relative to base, or "." when they are the same.
func relativePath(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "" {
		return target
	}
	return rel
}
