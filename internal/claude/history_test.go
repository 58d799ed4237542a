package claude

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
}

func TestReadHistory_AncestorAndDescendant(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writeLines(t, path,
		`{"project":"/work","display":"from parent","timestamp":1700000000000,"sessionId":"s1"}`,
		`{"project":"/work/app/sub","display":"from child","timestamp":1700000001000,"sessionId":"s2"}`,
		`{"project":"/work/apple","display":"sibling","timestamp":1700000002000}`,
		`{"project":"/elsewhere","display":"other","timestamp":1700000003000}`,
	)

	got := ReadHistory(path, "/work/app", nil)
	require.Len(t, got, 2)
	assert.Equal(t, "from child", got[0].Display)
	assert.Equal(t, "from parent", got[1].Display)
	require.NotNil(t, got[0].Timestamp)
	assert.Equal(t, "2023-11-14T22:13:21.000Z", *got[0].Timestamp)
	require.NotNil(t, got[0].SessionID)
	assert.JSONEq(t, `"s2"`, string(got[0].SessionID))
}

func TestReadHistory_SkipsMalformedAndIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writeLines(t, path,
		`not json`,
		`{"project":"/work/app","display":"   "}`,
		`{"project":"","display":"no project"}`,
		`{"project":42,"display":"numeric project"}`,
		`{"project":"/work/app","display":7}`,
		`{"project":"/work/app","display":"far future","timestamp":8.640000000000001e15,"sessionId":"gone"}`,
		`{"project":"/work/app","display":"far past","timestamp":-9e15}`,
		`{"project":"/work/app","display":"  keep   me ","timestamp":"yesterday","sessionId":null}`,
		`{"project":"/work/app","display":"truncated`,
	)

	got := ReadHistory(path, "/work/app", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "keep me", got[0].Display)
	assert.Nil(t, got[0].Timestamp)
	assert.Nil(t, got[0].SessionID)
}

func TestReadHistory_TimestampBoundsAndSessionValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	writeLines(t, path,
		`{"project":"/work/app","display":"numeric session","timestamp":0,"sessionId":3}`,
		`{"project":"/work/app","display":"object session","timestamp":8.64e15,"sessionId":{"id":"a"}}`,
		`{"project":"/work/app","display":"no session"}`,
	)

	got := ReadHistory(path, "/work/app", nil)
	require.Len(t, got, 3)

	assert.Equal(t, "no session", got[0].Display)
	assert.Nil(t, got[0].Timestamp)
	assert.Nil(t, got[0].SessionID)

	assert.Equal(t, "object session", got[1].Display)
	assert.NotNil(t, got[1].Timestamp, "the boundary itself is a valid date")
	assert.JSONEq(t, `{"id":"a"}`, string(got[1].SessionID))

	assert.Equal(t, "numeric session", got[2].Display)
	require.NotNil(t, got[2].Timestamp)
	assert.Equal(t, "1970-01-01T00:00:00.000Z", *got[2].Timestamp)
	assert.JSONEq(t, `3`, string(got[2].SessionID))
}

func TestReadHistory_KeepsLastEightNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	var lines []string
	for i := 1; i <= 12; i++ {
		lines = append(lines, fmt.Sprintf(`{"project":"/p","display":"prompt %d","timestamp":%d}`, i, i*1000))
	}
	writeLines(t, path, lines...)

	got := ReadHistory(path, "/p", nil)
	require.Len(t, got, MaxHistoryPrompts)
	assert.Equal(t, "prompt 12", got[0].Display)
	assert.Equal(t, "prompt 5", got[MaxHistoryPrompts-1].Display)
}

func TestReadHistory_OnlyTailIsExamined(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFile)
	lines := []string{`{"project":"/p","display":"too old"}`}
	for i := 0; i < HistoryTailLines; i++ {
		lines = append(lines, `{"project":"/other","display":"noise"}`)
	}
	writeLines(t, path, lines...)

	assert.Empty(t, ReadHistory(path, "/p", nil))
}

func TestReadHistory_MissingFile(t *testing.T) {
	got := ReadHistory(filepath.Join(t.TempDir(), "missing.jsonl"), "/p", nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
