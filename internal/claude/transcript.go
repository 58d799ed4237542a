package claude

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/tail"
)

// Search bounds for transcript selection. They keep the scan cheap when the projects
// directory holds hundreds of sessions.
const (
	MaxProjectDirs      = 40
	MaxFilesPerDir      = 12
	MaxCandidateFiles   = 80
	PeekLines           = 80
	TranscriptTailLines = 500
	MaxUserPrompts      = 5
	MaxTopTools         = 8
)

type candidate struct {
	path  string
	mtime time.Time
}

// FindTranscript picks the most recently modified transcript that records cwd (or an
// ancestor/descendant of it) as its working directory, and summarizes its tail.
// Returns nil when the directory is missing or nothing matches.
func FindTranscript(projectsDir, cwd string, logger *slog.Logger) *snapshot.TranscriptMatch {
	logger = logging.OrDiscard(logger)

	files := candidateFiles(projectsDir, cwd)
	for _, c := range files {
		if !mentionsProject(c.path, cwd) {
			continue
		}
		logger.Debug("transcript matched", "file", c.path)
		return summarize(c)
	}
	logger.Debug("no transcript matched", "dir", projectsDir, "candidates", len(files))
	return nil
}

// candidateFiles lists transcripts to check, newest first.
// Directories whose name contains the project's base name are searched before the rest;
// within each group a directory ranks by the newest of itself and its direct entries.
func candidateFiles(projectsDir, cwd string) []candidate {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil
	}

	base := strings.ToLower(filepath.Base(cwd))
	var dirs []projectDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := scanProjectDir(filepath.Join(projectsDir, entry.Name()))
		dir.hint = strings.Contains(strings.ToLower(entry.Name()), base)
		dirs = append(dirs, dir)
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		if dirs[i].hint != dirs[j].hint {
			return dirs[i].hint
		}
		return dirs[i].latest.After(dirs[j].latest)
	})
	if len(dirs) > MaxProjectDirs {
		dirs = dirs[:MaxProjectDirs]
	}

	var files []candidate
	for _, dir := range dirs {
		files = append(files, dir.transcripts...)
	}
	sortNewestFirst(files)
	if len(files) > MaxCandidateFiles {
		files = files[:MaxCandidateFiles]
	}
	return files
}

// projectDir is one subdirectory of the projects root, listed once.
type projectDir struct {
	path        string
	hint        bool
	latest      time.Time   // newest mtime of the directory and its direct entries
	transcripts []candidate // newest .jsonl files, capped at MaxFilesPerDir
}

// scanProjectDir lists dir once, recording the newest entry mtime and its transcripts.
func scanProjectDir(dir string) projectDir {
	pd := projectDir{path: dir, latest: modTime(dir)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return pd
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		mtime := modTime(path)
		if mtime.After(pd.latest) {
			pd.latest = mtime
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		pd.transcripts = append(pd.transcripts, candidate{path: path, mtime: mtime})
	}
	sortNewestFirst(pd.transcripts)
	if len(pd.transcripts) > MaxFilesPerDir {
		pd.transcripts = pd.transcripts[:MaxFilesPerDir]
	}
	return pd
}

// mentionsProject reports whether any recent record in the transcript carries a cwd
// belonging to the project.
func mentionsProject(path, cwd string) bool {
	for _, line := range tail.Lines(path, PeekLines) {
		if !gjson.Valid(line) {
			continue
		}
		v := gjson.Get(line, "cwd")
		if v.Type == gjson.String && snapshot.SameProject(v.Str, cwd) {
			return true
		}
	}
	return false
}

// summarize collects the last user prompts and the most used tools from the transcript.
func summarize(c candidate) *snapshot.TranscriptMatch {
	var prompts []string
	counts := newToolCounter()

	for _, line := range tail.Lines(c.path, TranscriptTailLines) {
		if !gjson.Valid(line) {
			continue
		}
		fields := gjson.GetMany(line, "type", "message.content")
		switch fields[0].Str {
		case "user":
			if text := snapshot.Compact(extractText(fields[1])); text != "" {
				prompts = append(prompts, text)
			}
		case "assistant":
			if !fields[1].IsArray() {
				continue
			}
			fields[1].ForEach(func(_, block gjson.Result) bool {
				name := block.Get("name")
				if block.Get("type").Str == "tool_use" && name.Type == gjson.String {
					counts.add(name.Str)
				}
				return true
			})
		}
	}

	if len(prompts) > MaxUserPrompts {
		prompts = prompts[len(prompts)-MaxUserPrompts:]
	}
	last := make([]string, 0, len(prompts))
	for i := len(prompts) - 1; i >= 0; i-- {
		last = append(last, prompts[i])
	}

	modified := c.mtime
	if modified.IsZero() {
		modified = time.UnixMilli(0)
	}
	return &snapshot.TranscriptMatch{
		File:            c.path,
		ModifiedAt:      snapshot.FormatTime(modified),
		LastUserPrompts: last,
		TopTools:        counts.top(MaxTopTools),
	}
}

// extractText joins every string "text" field of the content blocks with a space.
// Content that is not a block array yields "".
func extractText(content gjson.Result) string {
	if !content.IsArray() {
		return ""
	}
	var chunks []string
	content.ForEach(func(_, block gjson.Result) bool {
		if !block.IsObject() {
			return true
		}
		if text := block.Get("text"); text.Type == gjson.String {
			chunks = append(chunks, text.Str)
		}
		return true
	})
	return strings.TrimSpace(strings.Join(chunks, " "))
}

// toolCounter counts tool invocations, remembering first-seen order for ties.
type toolCounter struct {
	order  []string
	counts map[string]int
}

func newToolCounter() *toolCounter {
	return &toolCounter{counts: make(map[string]int)}
}

func (t *toolCounter) add(name string) {
	if _, ok := t.counts[name]; !ok {
		t.order = append(t.order, name)
	}
	t.counts[name]++
}

func (t *toolCounter) top(n int) []snapshot.ToolCount {
	out := make([]snapshot.ToolCount, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, snapshot.ToolCount{Name: name, Count: t.counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortNewestFirst(files []candidate) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].mtime.After(files[j].mtime) })
}

// modTime returns the modification time of path, or the zero time if it cannot be read.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
