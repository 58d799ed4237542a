// Package claude recovers recent conversation context for a project from the agent's
// local state directory: the global prompt history and per-project session transcripts.
//
// Both inputs are newline-delimited JSON written by another program. Every line is parsed
// on its own and malformed lines are skipped.
package claude

import (
	"log/slog"
	"path/filepath"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
)

const (
	// HistoryFile is the prompt history file inside the state directory.
	HistoryFile = "history.jsonl"

	// ProjectsDir holds one subdirectory of transcripts per project.
	ProjectsDir = "projects"
)

// Collect reads both the prompt history and the best matching transcript under root.
func Collect(root, cwd string, logger *slog.Logger) snapshot.ClaudeContext {
	logger = logging.OrDiscard(logger)
	return snapshot.ClaudeContext{
		HistoryPrompts: ReadHistory(filepath.Join(root, HistoryFile), cwd, logger),
		Transcript:     FindTranscript(filepath.Join(root, ProjectsDir), cwd, logger),
	}
}
