package snapshot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompact(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"fix  the\tbug", "fix the bug"},
		{"\n line one \r\n line two \n", "line one line two"},
		{"already compact", "already compact"},
		{"no\u00a0\u00a0break", "no break"},
		{"em\u2003\u2003space", "em space"},
		{"\u3000ideographic\u3000space\u3000", "ideographic space"},
		{"vertical\vtab\u2028line\u2029para", "vertical tab line para"},
		{"\ufeffbom  start", "bom start"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compact(tt.in), "Compact(%q)", tt.in)
	}
}

func TestSameProject(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "/work/app", "/work/app", true},
		{"ancestor", "/work", "/work/app", true},
		{"descendant", "/work/app/sub", "/work/app", true},
		{"sibling prefix", "/work/app", "/work/apple", false},
		{"unrelated", "/work/app", "/other/app", false},
		{"trailing slash", "/work/app/", "/work/app", true},
		{"dot segments", "/work/app/../app", "/work/app", true},
		{"empty", "", "/work/app", false},
		{"root is not an ancestor", "/", "/work/app", false},
		{"root descendant", "/work/app", "/", false},
		{"root equal", "/", "/", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := filepath.FromSlash(tt.a), filepath.FromSlash(tt.b)
			assert.Equal(t, tt.want, SameProject(a, b))
			assert.Equal(t, tt.want, SameProject(b, a), "must be symmetric")
		})
	}
}

func TestToEntry(t *testing.T) {
	focus := "ship it"
	s := &Snapshot{
		ID:    "01J0000000000000000000000",
		Cwd:   "/work/app",
		Focus: &focus,
		Git:   &GitState{Branch: "main", Dirty: true},
		Tasks: TaskSummary{Count: 3},
	}

	e := s.ToEntry("/work/app/.agent-lifeline/snapshots/20260101-120000.json", 42)
	assert.Equal(t, s.ID, e.ID)
	assert.Equal(t, int64(42), e.CreatedAt)
	assert.Equal(t, 3, e.TaskCount)
	assert.True(t, e.Dirty)
	if assert.NotNil(t, e.Branch) {
		assert.Equal(t, "main", *e.Branch)
	}

	s.Git = nil
	e = s.ToEntry("x.json", 1)
	assert.Nil(t, e.Branch)
	assert.False(t, e.Dirty)
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("X", 2*3600))
	assert.Equal(t, "2026-03-04T03:06:07.890Z", FormatTime(ts))
	assert.Equal(t, "1970-01-01T00:00:00.000Z", FormatTime(time.UnixMilli(0)))
}
