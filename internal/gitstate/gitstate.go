// Package gitstate summarizes the git working tree of a project directory.
//
// Every step is a separate git subprocess. A step that fails (non-zero exit, missing
// binary) is treated as unavailable and contributes an empty value; only the initial
// work-tree check decides whether any state is reported at all.
package gitstate

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/snapshot"
)

const (
	// MaxChangedFiles caps the diff entries kept in a snapshot.
	MaxChangedFiles = 25

	// RecentCommitCount is how many one-line commits are requested.
	RecentCommitCount = 5
)

// Runner runs a git command in dir and returns its stdout.
// A non-nil error means the command could not produce a usable result.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct{}

// Run executes git with args in dir, capturing stderr for diagnostics on failure.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed in %s: %w: %s", strings.Join(args, " "), dir, err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// Inspector collects GitState through a Runner.
type Inspector struct {
	Runner Runner
	Logger *slog.Logger
}

// New returns an Inspector using the real git binary.
func New(logger *slog.Logger) *Inspector {
	return &Inspector{Runner: ExecRunner{}, Logger: logging.OrDiscard(logger)}
}

// Inspect returns the working tree summary for dir, or nil when dir is not inside a work tree.
func (in *Inspector) Inspect(ctx context.Context, dir string) *snapshot.GitState {
	if !in.InsideWorkTree(ctx, dir) {
		return nil
	}

	state := &snapshot.GitState{
		Branch:        snapshot.DetachedBranch,
		ChangedFiles:  []snapshot.ChangedFile{},
		RecentCommits: []string{},
	}

	if out, err := in.run(ctx, dir, "branch", "--show-current"); err == nil {
		if branch := strings.TrimSpace(out); branch != "" {
			state.Branch = branch
		}
	}

	if out, err := in.run(ctx, dir, "status", "--porcelain"); err == nil {
		applyStatus(state, out)
	}

	if out, err := in.run(ctx, dir, "diff", "--name-status", "--relative", "HEAD"); err == nil {
		state.ChangedFiles = parseNameStatus(out, MaxChangedFiles)
	}

	if out, err := in.run(ctx, dir, "rev-list", "--left-right", "--count", "HEAD...@{u}"); err == nil {
		state.Ahead, state.Behind = parseAheadBehind(out)
	}

	if out, err := in.run(ctx, dir, "log", "--oneline", "-"+strconv.Itoa(RecentCommitCount)); err == nil {
		state.RecentCommits = splitLines(out)
	}

	return state
}

// InsideWorkTree reports whether dir is inside a git working tree.
func (in *Inspector) InsideWorkTree(ctx context.Context, dir string) bool {
	out, err := in.run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Version returns the output of `git --version`.
func (in *Inspector) Version(ctx context.Context, dir string) (string, error) {
	out, err := in.run(ctx, dir, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (in *Inspector) run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := in.Runner.Run(ctx, dir, args...)
	if err != nil {
		logging.OrDiscard(in.Logger).Debug("git step unavailable", "args", strings.Join(args, " "), "error", err)
	}
	return out, err
}

// applyStatus fills the change counters from `git status --porcelain` output.
// "??" lines are untracked only; otherwise column X counts as staged and column Y as
// modified, and a line may count toward both.
func applyStatus(state *snapshot.GitState, out string) {
	lines := splitLines(out)
	for _, line := range lines {
		if strings.HasPrefix(line, "??") {
			state.UntrackedCount++
			continue
		}
		x, y := byte(' '), byte(' ')
		if len(line) > 0 {
			x = line[0]
		}
		if len(line) > 1 {
			y = line[1]
		}
		if x != ' ' {
			state.StagedCount++
		}
		if y != ' ' {
			state.ModifiedCount++
		}
	}
	state.ChangedCount = len(lines)
	state.Dirty = len(lines) > 0
}

// parseNameStatus parses `git diff --name-status` output, keeping the first limit entries.
// The path is every token after the status re-joined with single spaces.
func parseNameStatus(out string, limit int) []snapshot.ChangedFile {
	files := []snapshot.ChangedFile{}
	for _, line := range splitLines(out) {
		if len(files) >= limit {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		files = append(files, snapshot.ChangedFile{
			Status: fields[0],
			Path:   strings.Join(fields[1:], " "),
		})
	}
	return files
}

// parseAheadBehind reads the two counts printed by `rev-list --left-right --count`.
// Anything other than two fields yields 0/0; an unparseable field yields 0.
func parseAheadBehind(out string) (ahead, behind int) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0
	}
	ahead, _ = strconv.Atoi(fields[0])
	behind, _ = strconv.Atoi(fields[1])
	return ahead, behind
}

// splitLines splits on "\n" or "\r\n" and drops empty lines. Leading spaces are kept
// because porcelain status columns depend on them.
func splitLines(out string) []string {
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
