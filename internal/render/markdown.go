package render

import (
	"fmt"
	"strings"

	"github.com/hpungsan/lifeline/internal/snapshot"
)

// Limits applied by the handoff document.
const (
	mdChangedFiles   = 12
	mdOpenTasks      = 15
	mdExecutionLines = 10
	mdHistoryPrompts = 8
	mdSessionPrompts = 5
)

// NextAgentInstructions close every handoff document.
var NextAgentInstructions = []string{
	"Continue from open tasks in priority order.",
	"Verify changed files and run relevant tests.",
	"Keep this handoff updated with `lifeline save --focus \"...\"`.",
}

// Markdown renders the handoff document for the next agent.
func Markdown(s *snapshot.Snapshot) string {
	var lines []string
	line := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	line("# Agent Handoff")
	line("Generated: %s", s.CreatedAt)
	line("Project: %s", s.Cwd)
	if focus := deref(s.Focus); focus != "" {
		line("Focus: %s", focus)
	}
	line("")

	if g := s.Git; g != nil {
		line("## Git")
		line("Branch: %s", g.Branch)
		line("Dirty: %t", g.Dirty)
		line("Changed: %d", g.ChangedCount)
		line("Ahead/Behind: %d/%d", g.Ahead, g.Behind)
		if len(g.ChangedFiles) > 0 {
			line("Top changed files:")
			for _, f := range head(g.ChangedFiles, mdChangedFiles) {
				line("- [%s] %s", f.Status, f.Path)
			}
		}
		line("")
	}

	line("## Open Tasks")
	if len(s.Tasks.Open) == 0 {
		line("- No parsed tasks found.")
	}
	for _, t := range head(s.Tasks.Open, mdOpenTasks) {
		line("- (%s) %s", t.Source, t.Text)
	}
	line("")

	if s.Execution.Available && len(s.Execution.LastLines) > 0 {
		line("## Recent Execution Log")
		for _, l := range last(s.Execution.LastLines, mdExecutionLines) {
			line("- %s", l)
		}
		line("")
	}

	if len(s.Claude.HistoryPrompts) > 0 {
		line("## Recent Prompts (history.jsonl)")
		for _, p := range head(s.Claude.HistoryPrompts, mdHistoryPrompts) {
			line("- %s", p.Display)
		}
		line("")
	}

	if t := s.Claude.Transcript; t != nil && len(t.LastUserPrompts) > 0 {
		line("## Latest Session Prompts")
		for _, p := range head(t.LastUserPrompts, mdSessionPrompts) {
			line("- %s", p)
		}
		line("")
	}

	line("## Next Agent Instructions")
	for _, instr := range NextAgentInstructions {
		line("- %s", instr)
	}

	return strings.Join(lines, "\n")
}
