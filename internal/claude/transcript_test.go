package claude

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hpungsan/lifeline/internal/snapshot"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func userLine(cwd, text string) string {
	return fmt.Sprintf(`{"type":"user","cwd":%q,"message":{"role":"user","content":[{"type":"text","text":%q}]}}`, cwd, text)
}

func toolLine(cwd string, names ...string) string {
	blocks := `{"type":"text","text":"working"}`
	for _, n := range names {
		blocks += fmt.Sprintf(`,{"type":"tool_use","id":"x","name":%q,"input":{}}`, n)
	}
	return fmt.Sprintf(`{"type":"assistant","cwd":%q,"message":{"role":"assistant","content":[%s]}}`, cwd, blocks)
}

func TestFindTranscript_PicksNewestMatching(t *testing.T) {
	root := t.TempDir()
	cwd := "/work/app"

	older := filepath.Join(root, "-work-app", "older.jsonl")
	newer := filepath.Join(root, "-work-app", "newer.jsonl")
	foreign := filepath.Join(root, "-other", "newest.jsonl")
	writeLines(t, older, userLine(cwd, "old prompt"))
	writeLines(t, newer, userLine(cwd, "new prompt"))
	writeLines(t, foreign, userLine("/other", "unrelated"))
	touch(t, older, base)
	touch(t, newer, base.Add(time.Hour))
	touch(t, foreign, base.Add(2*time.Hour))

	got := FindTranscript(root, cwd, nil)
	require.NotNil(t, got)
	assert.Equal(t, newer, got.File)
	assert.Equal(t, []string{"new prompt"}, got.LastUserPrompts)
	assert.Equal(t, snapshot.FormatTime(base.Add(time.Hour)), got.ModifiedAt)
}

func TestFindTranscript_SummarizesPromptsAndTools(t *testing.T) {
	root := t.TempDir()
	cwd := "/work/app"
	path := filepath.Join(root, "-work-app", "session.jsonl")

	lines := []string{`{"type":"summary","summary":"x"}`, `garbage line`}
	for i := 1; i <= 7; i++ {
		lines = append(lines, userLine(cwd, fmt.Sprintf("prompt  %d", i)))
	}
	lines = append(lines,
		toolLine(cwd, "Read", "Edit", "Read"),
		toolLine(cwd, "Bash", "Edit"),
		toolLine(cwd, "Grep"),
		// string content and blocks without text are not prompts
		`{"type":"user","message":{"content":"plain string prompt"}}`,
		`{"type":"user","message":{"content":[{"type":"tool_result","content":"ignored"}]}}`,
	)
	writeLines(t, path, lines...)

	got := FindTranscript(root, cwd, nil)
	require.NotNil(t, got)
	assert.Equal(t, []string{"prompt 7", "prompt 6", "prompt 5", "prompt 4", "prompt 3"}, got.LastUserPrompts)
	assert.Equal(t, []snapshot.ToolCount{
		{Name: "Read", Count: 2},
		{Name: "Edit", Count: 2},
		{Name: "Bash", Count: 1},
		{Name: "Grep", Count: 1},
	}, got.TopTools)
}

func TestFindTranscript_TopToolsCapped(t *testing.T) {
	root := t.TempDir()
	cwd := "/p"
	var names []string
	for i := 0; i < 12; i++ {
		names = append(names, fmt.Sprintf("tool%02d", i))
	}
	writeLines(t, filepath.Join(root, "p", "s.jsonl"), toolLine(cwd, names...))

	got := FindTranscript(root, cwd, nil)
	require.NotNil(t, got)
	require.Len(t, got.TopTools, MaxTopTools)
	assert.Equal(t, "tool00", got.TopTools[0].Name)
	assert.Empty(t, got.LastUserPrompts)
	assert.NotNil(t, got.LastUserPrompts)
}

func TestFindTranscript_NoMatch(t *testing.T) {
	root := t.TempDir()
	writeLines(t, filepath.Join(root, "x", "s.jsonl"), userLine("/elsewhere", "hi"))

	assert.Nil(t, FindTranscript(root, "/work/app", nil))
	assert.Nil(t, FindTranscript(filepath.Join(root, "missing"), "/work/app", nil))
}

func TestCandidateFiles_HintedDirectoriesFirst(t *testing.T) {
	root := t.TempDir()

	// 45 non-hinted directories, all newer than the hinted one.
	for i := 0; i < 45; i++ {
		dir := filepath.Join(root, fmt.Sprintf("other-%02d", i))
		file := filepath.Join(dir, "s.jsonl")
		writeLines(t, file, userLine("/elsewhere", "x"))
		touch(t, file, base.Add(time.Duration(i+10)*time.Minute))
		touch(t, dir, base.Add(time.Duration(i+10)*time.Minute))
	}
	hinted := filepath.Join(root, "-home-dev-MyApp")
	hintedFile := filepath.Join(hinted, "s.jsonl")
	writeLines(t, hintedFile, userLine("/home/dev/myapp", "x"))
	touch(t, hintedFile, base)
	touch(t, hinted, base)

	files := candidateFiles(root, "/home/dev/myapp")
	paths := make(map[string]bool)
	for _, f := range files {
		paths[f.path] = true
	}
	assert.True(t, paths[hintedFile], "hinted directory must survive the directory cap")
	assert.Len(t, files, MaxProjectDirs, "one file from each of the first 40 directories")
	assert.False(t, paths[filepath.Join(root, "other-00", "s.jsonl")], "oldest non-hinted directory is cut")

	// Global ordering is by file mtime, so the hinted (oldest) file comes last.
	assert.Equal(t, hintedFile, files[len(files)-1].path)
}

func TestCandidateFiles_RanksDirectoryByNewestEntry(t *testing.T) {
	root := t.TempDir()
	cwd := "/work/app"

	// 45 busy-looking directories whose own mtimes are recent but whose sessions belong elsewhere.
	for i := 0; i < 45; i++ {
		dir := filepath.Join(root, fmt.Sprintf("-srv-other-%02d", i))
		file := filepath.Join(dir, "s.jsonl")
		writeLines(t, file, userLine("/elsewhere", "x"))
		at := base.Add(time.Duration(i+10) * time.Minute)
		touch(t, file, at)
		touch(t, dir, at)
	}

	// Transcripts are appended in place, so the directory mtime stays old while the file is fresh.
	project := filepath.Join(root, "-srv-project")
	live := filepath.Join(project, "live.jsonl")
	writeLines(t, live, userLine(cwd, "still going"))
	touch(t, live, base.Add(48*time.Hour))
	touch(t, project, base.Add(-24*time.Hour))

	got := FindTranscript(root, cwd, nil)
	require.NotNil(t, got)
	assert.Equal(t, live, got.File)
	assert.Equal(t, []string{"still going"}, got.LastUserPrompts)
}

func TestScanProjectDir(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		p := filepath.Join(dir, fmt.Sprintf("s%02d.jsonl", i))
		writeLines(t, p, "{}")
		touch(t, p, base.Add(time.Duration(i)*time.Second))
	}
	notes := filepath.Join(dir, "notes.txt")
	writeLines(t, notes, "ignored")
	touch(t, notes, base.Add(time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.jsonl"), 0700))
	touch(t, filepath.Join(dir, "dir.jsonl"), base)
	touch(t, dir, base)

	pd := scanProjectDir(dir)
	require.Len(t, pd.transcripts, MaxFilesPerDir)
	assert.Equal(t, filepath.Join(dir, "s19.jsonl"), pd.transcripts[0].path)
	assert.Equal(t, filepath.Join(dir, "s08.jsonl"), pd.transcripts[MaxFilesPerDir-1].path)
	assert.True(t, pd.latest.Equal(base.Add(time.Hour)), "non-transcript entries count toward the directory's recency")

	missing := scanProjectDir(filepath.Join(dir, "missing"))
	assert.Empty(t, missing.transcripts)
	assert.True(t, missing.latest.IsZero())
}

func TestExtractText(t *testing.T) {
	content := gjson.Parse(`[{"type":"text","text":"hello"},{"type":"image"},"bare",{"type":"text","text":"world"}]`)
	assert.Equal(t, "hello world", extractText(content))
	assert.Equal(t, "", extractText(gjson.Parse(`"plain"`)))
	assert.Equal(t, "", extractText(gjson.Parse(`{"text":"not an array"}`)))
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	cwd := "/work/app"
	writeLines(t, filepath.Join(root, HistoryFile), `{"project":"/work/app","display":"hi"}`)
	writeLines(t, filepath.Join(root, ProjectsDir, "-work-app", "s.jsonl"), userLine(cwd, "resume"))

	got := Collect(root, cwd, nil)
	require.Len(t, got.HistoryPrompts, 1)
	require.NotNil(t, got.Transcript)
	assert.Equal(t, []string{"resume"}, got.Transcript.LastUserPrompts)

	empty := Collect(filepath.Join(root, "nothing"), cwd, nil)
	assert.Empty(t, empty.HistoryPrompts)
	assert.Nil(t, empty.Transcript)
}
