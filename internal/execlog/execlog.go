// Package execlog reads the tail of a project's execution log.
package execlog

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/tail"
)

const (
	// TailLines is how many raw lines are read from the end of the log.
	TailLines = 30

	// MaxLines caps the compacted lines kept in the summary.
	MaxLines = 15
)

// CandidateFiles are checked in order relative to the project directory; the first one
// that exists is used.
var CandidateFiles = []string{
	"execution.log",
	filepath.Join("logs", "execution.log"),
	filepath.Join(".agent", "execution.log"),
	filepath.Join(".agent-lifeline", "execution.log"),
}

// Read summarizes the first execution log found under dir.
func Read(dir string, logger *slog.Logger) snapshot.ExecutionSummary {
	logger = logging.OrDiscard(logger)

	for _, rel := range CandidateFiles {
		path := filepath.Join(dir, rel)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		lines := []string{}
		for _, line := range tail.Lines(path, TailLines) {
			if c := snapshot.Compact(line); c != "" {
				lines = append(lines, c)
			}
		}
		if len(lines) > MaxLines {
			lines = lines[len(lines)-MaxLines:]
		}

		logger.Debug("execution log found", "path", path, "lines", len(lines))
		source := rel
		return snapshot.ExecutionSummary{
			Available: true,
			Source:    &source,
			LastLines: lines,
		}
	}

	return snapshot.EmptyExecution()
}
