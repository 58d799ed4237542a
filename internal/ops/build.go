package ops

import (
	"context"
	"crypto/rand"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/lifeline/internal/claude"
	"github.com/hpungsan/lifeline/internal/execlog"
	"github.com/hpungsan/lifeline/internal/gitstate"
	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/tasks"
)

// BuildInput contains parameters for assembling a snapshot.
type BuildInput struct {
	Cwd       string    // absolute project directory
	Focus     string    // optional note; blank means none
	ClaudeDir string    // agent state root (history.jsonl, projects/)
	Now       time.Time // creation time recorded in the snapshot
	Version   string
}

// Build runs every collector against the project and composes the snapshot.
// Collectors are independent and never fail; missing inputs yield empty sections.
func Build(ctx context.Context, git *gitstate.Inspector, logger *slog.Logger, in BuildInput) *snapshot.Snapshot {
	logger = logging.OrDiscard(logger)
	if git == nil {
		git = gitstate.New(logger)
	}

	var focus *string
	if f := strings.TrimSpace(in.Focus); f != "" {
		focus = &f
	}

	s := &snapshot.Snapshot{
		SchemaVersion: snapshot.SchemaVersion,
		ID:            newID(in.Now),
		Tool:          snapshot.Tool,
		Version:       in.Version,
		CreatedAt:     snapshot.FormatTime(in.Now),
		Cwd:           in.Cwd,
		Focus:         focus,
		Git:           git.Inspect(ctx, in.Cwd),
		Tasks:         tasks.Scan(in.Cwd, logger),
		Execution:     execlog.Read(in.Cwd, logger),
		Claude:        claude.Collect(in.ClaudeDir, in.Cwd, logger),
	}

	logger.Debug("snapshot built",
		"id", s.ID,
		"git", s.Git != nil,
		"tasks", s.Tasks.Count,
		"execution", s.Execution.Available,
		"history_prompts", len(s.Claude.HistoryPrompts),
		"transcript", s.Claude.Transcript != nil,
	)
	return s
}

// newID returns a ULID stamped with t.
func newID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
