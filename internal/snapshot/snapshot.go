package snapshot

import (
	"encoding/json"
	"time"
)

const (
	// SchemaVersion is the version of the snapshot document layout.
	SchemaVersion = 1

	// Tool identifies the producer inside every snapshot document.
	Tool = "agent-lifeline"

	// DetachedBranch is reported when HEAD is not on a branch.
	DetachedBranch = "(detached)"

	// TimeLayout is the UTC timestamp format used throughout snapshot documents.
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Snapshot is the single record produced by one save. It is built once and never mutated.
type Snapshot struct {
	SchemaVersion int              `json:"schemaVersion"`
	ID            string           `json:"id"`
	Tool          string           `json:"tool"`
	Version       string           `json:"version"`
	CreatedAt     string           `json:"createdAt"`
	Cwd           string           `json:"cwd"`
	Focus         *string          `json:"focus"`
	Git           *GitState        `json:"git"`
	Tasks         TaskSummary      `json:"tasks"`
	Execution     ExecutionSummary `json:"execution"`
	Claude        ClaudeContext    `json:"claude"`
}

// GitState is the working tree summary. Nil on a Snapshot when cwd is not inside a work tree.
type GitState struct {
	Branch         string        `json:"branch"`
	Ahead          int           `json:"ahead"`
	Behind         int           `json:"behind"`
	Dirty          bool          `json:"dirty"`
	ChangedCount   int           `json:"changedCount"`
	StagedCount    int           `json:"stagedCount"`
	ModifiedCount  int           `json:"modifiedCount"`
	UntrackedCount int           `json:"untrackedCount"`
	ChangedFiles   []ChangedFile `json:"changedFiles"`
	RecentCommits  []string      `json:"recentCommits"`
}

// ChangedFile is one entry of `git diff --name-status`.
type ChangedFile struct {
	Status string `json:"status"`
	Path   string `json:"path"`
}

// TaskSummary lists open tasks found in markdown task files.
// Count covers every recognized item; Open is capped.
type TaskSummary struct {
	Count int        `json:"count"`
	Open  []TaskItem `json:"open"`
}

// TaskItem is one open task line. Source is relative to the snapshot cwd.
type TaskItem struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ExecutionSummary is the tail of the first execution log found.
type ExecutionSummary struct {
	Available bool     `json:"available"`
	Source    *string  `json:"source"`
	LastLines []string `json:"lastLines"`
}

// ClaudeContext holds what could be recovered from the agent's local history.
type ClaudeContext struct {
	HistoryPrompts []HistoryPrompt  `json:"historyPrompts"`
	Transcript     *TranscriptMatch `json:"transcript"`
}

// HistoryPrompt is one prompt from history.jsonl, already filtered to the project.
// SessionID carries the recorded value verbatim, whatever its JSON type; nil encodes as null.
type HistoryPrompt struct {
	Display   string          `json:"display"`
	Timestamp *string         `json:"timestamp"`
	SessionID json.RawMessage `json:"sessionId"`
}

// TranscriptMatch summarizes the most recent transcript recorded for the project.
type TranscriptMatch struct {
	File            string      `json:"file"`
	ModifiedAt      string      `json:"modifiedAt"`
	LastUserPrompts []string    `json:"lastUserPrompts"`
	TopTools        []ToolCount `json:"topTools"`
}

// ToolCount is how many times a tool was invoked in a transcript.
type ToolCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// EmptyExecution is the summary reported when no execution log exists.
func EmptyExecution() ExecutionSummary {
	return ExecutionSummary{LastLines: []string{}}
}
