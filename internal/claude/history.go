package claude

import (
	"encoding/json"
	"log/slog"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/tail"
)

const (
	// HistoryTailLines is how many history lines are examined.
	HistoryTailLines = 400

	// MaxHistoryPrompts caps the prompts kept for the snapshot.
	MaxHistoryPrompts = 8
)

// maxTimestampMillis is the largest epoch offset representable as a calendar date.
const maxTimestampMillis = 8.64e15

// ReadHistory returns the most recent prompts recorded for cwd, newest first.
// A missing or unreadable file yields an empty slice.
func ReadHistory(path, cwd string, logger *slog.Logger) []snapshot.HistoryPrompt {
	logger = logging.OrDiscard(logger)

	var kept []snapshot.HistoryPrompt
	skipped := 0
	for _, line := range tail.Lines(path, HistoryTailLines) {
		if !gjson.Valid(line) {
			skipped++
			continue
		}
		prompt, ok := parseHistoryLine(line, cwd)
		if ok {
			kept = append(kept, prompt)
		}
	}
	if skipped > 0 {
		logger.Debug("skipped malformed history lines", "path", path, "count", skipped)
	}

	if len(kept) > MaxHistoryPrompts {
		kept = kept[len(kept)-MaxHistoryPrompts:]
	}
	out := make([]snapshot.HistoryPrompt, 0, len(kept))
	for i := len(kept) - 1; i >= 0; i-- {
		out = append(out, kept[i])
	}
	return out
}

// parseHistoryLine extracts a prompt from one history record if it belongs to cwd.
func parseHistoryLine(line, cwd string) (snapshot.HistoryPrompt, bool) {
	fields := gjson.GetMany(line, "project", "display", "timestamp", "sessionId")
	project, display, ts, session := fields[0], fields[1], fields[2], fields[3]

	if project.Type != gjson.String || project.Str == "" {
		return snapshot.HistoryPrompt{}, false
	}
	if !snapshot.SameProject(project.Str, cwd) {
		return snapshot.HistoryPrompt{}, false
	}
	if display.Type != gjson.String {
		return snapshot.HistoryPrompt{}, false
	}
	text := snapshot.Compact(display.Str)
	if text == "" {
		return snapshot.HistoryPrompt{}, false
	}

	prompt := snapshot.HistoryPrompt{Display: text}
	if ts.Type == gjson.Number {
		// A numeric timestamp with no calendar date makes the record unusable.
		if math.IsNaN(ts.Num) || math.Abs(ts.Num) > maxTimestampMillis {
			return snapshot.HistoryPrompt{}, false
		}
		formatted := snapshot.FormatTime(time.UnixMilli(int64(ts.Num)))
		prompt.Timestamp = &formatted
	}
	if session.Exists() && session.Type != gjson.Null {
		prompt.SessionID = json.RawMessage(session.Raw)
	}
	return prompt, true
}
