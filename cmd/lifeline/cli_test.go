package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/lifeline/internal/config"
	"github.com/hpungsan/lifeline/internal/gitstate"
	"github.com/hpungsan/lifeline/internal/ops"
)

// noGit fails every command, as if git were not installed.
type noGit struct{}

func (noGit) Run(_ context.Context, _ string, args ...string) (string, error) {
	return "", fmt.Errorf("git %v: not available", args)
}

// testEnv returns an Env with an isolated home and no git.
func testEnv(t *testing.T) *ops.Env {
	t.Helper()
	env := ops.NewEnv(config.DefaultConfig(), t.TempDir(), "test", nil)
	env.Git = &gitstate.Inspector{Runner: noGit{}}
	next := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	env.Now = func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
	return env
}

// runCLI runs the app with args and returns stdout.
func runCLI(t *testing.T, env *ops.Env, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	app := newCLIApp(env)
	app.Writer = &stdout
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"lifeline"}, args...))
	return stdout.String(), err
}

func TestCLISave(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "TODO.md"), []byte("- [ ] fix bug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, env, "save", "--cwd="+project, "--focus=ship it")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(out, "Saved snapshot: ") {
		t.Errorf("output should start with saved line, got: %s", out)
	}
	if !strings.Contains(out, "Agent Lifeline Snapshot") {
		t.Errorf("output should contain the brief view, got: %s", out)
	}
	if strings.Contains(out, "fix bug") {
		t.Errorf("brief view should not list tasks, got: %s", out)
	}
	if _, err := os.Stat(filepath.Join(project, ".agent-lifeline", "latest.json")); err != nil {
		t.Errorf("latest.json not written: %v", err)
	}
}

func TestCLISave_JSON(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()

	out, err := runCLI(t, env, "save", "--cwd", project, "--json")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var snap map[string]any
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if snap["schemaVersion"] != float64(1) {
		t.Errorf("schemaVersion = %v, want 1", snap["schemaVersion"])
	}
	if snap["cwd"] != project {
		t.Errorf("cwd = %v, want %q", snap["cwd"], project)
	}
	if v, ok := snap["focus"]; !ok || v != nil {
		t.Errorf("focus = %v (present=%v), want null", v, ok)
	}
}

func TestCLIShow(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()

	t.Run("no snapshot", func(t *testing.T) {
		_, err := runCLI(t, env, "show", "--cwd", project)
		if err == nil {
			t.Fatal("expected error when no snapshot exists")
		}
		if !strings.Contains(err.Error(), "[NOT_FOUND]") {
			t.Errorf("error = %q, want [NOT_FOUND] prefix", err.Error())
		}
	})

	if err := os.WriteFile(filepath.Join(project, "tasks.md"), []byte("- [ ] write docs\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, env, "save", "--cwd", project); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Run("text", func(t *testing.T) {
		out, err := runCLI(t, env, "show", "--cwd", project)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, "write docs") {
			t.Errorf("full view should list tasks, got: %s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCLI(t, env, "show", "--cwd", project, "--json")
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		var snap map[string]any
		if err := json.Unmarshal([]byte(out), &snap); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		tasks := snap["tasks"].(map[string]any)
		if tasks["count"] != float64(1) {
			t.Errorf("tasks.count = %v, want 1", tasks["count"])
		}
	})
}

func TestCLIExport(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()
	if _, err := runCLI(t, env, "save", "--cwd", project, "--focus", "handoff"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Run("markdown to stdout", func(t *testing.T) {
		out, err := runCLI(t, env, "export", "--cwd", project)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.HasPrefix(out, "# Agent Handoff\n") {
			t.Errorf("unexpected export output: %s", out)
		}
		if !strings.Contains(out, "Focus: handoff") {
			t.Errorf("export should contain focus, got: %s", out)
		}
	})

	t.Run("json prints snapshot", func(t *testing.T) {
		out, err := runCLI(t, env, "export", "--cwd", project, "--json")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		var snap map[string]any
		if err := json.Unmarshal([]byte(out), &snap); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if snap["focus"] != "handoff" {
			t.Errorf("focus = %v", snap["focus"])
		}
	})

	t.Run("html to file", func(t *testing.T) {
		out, err := runCLI(t, env, "export", "--cwd", project, "--format", "html", "--out", "HANDOFF.html")
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.HasPrefix(out, "Exported: ") {
			t.Errorf("unexpected output: %s", out)
		}
		data, err := os.ReadFile(filepath.Join(project, "HANDOFF.html"))
		if err != nil {
			t.Fatalf("export file not written: %v", err)
		}
		if !strings.Contains(string(data), "<!DOCTYPE html>") {
			t.Errorf("export file is not HTML")
		}
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := runCLI(t, env, "export", "--cwd", project, "--out", "../HANDOFF.md")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected [INVALID_REQUEST], got: %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := runCLI(t, env, "export", "--cwd", project, "--format", "pdf")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected [INVALID_REQUEST], got: %v", err)
		}
	})
}

func TestCLIDoctor(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()

	out, err := runCLI(t, env, "doctor", "--cwd", project)
	if err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	for _, want := range []string{
		"Agent Lifeline Doctor",
		"- version: test",
		"- writable store: yes",
		"- git available: no",
		"- in git repo: no",
		"- history.jsonl: no",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, env, "doctor", "--cwd", project, "--json")
	if err != nil {
		t.Fatalf("doctor --json failed: %v", err)
	}
	var report ops.DoctorOutput
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if report.Git.Details != "not available" {
		t.Errorf("git.details = %q", report.Git.Details)
	}
}

func TestCLIListAndPrune(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()
	for i := 0; i < 3; i++ {
		if _, err := runCLI(t, env, "save", "--cwd", project); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	out, err := runCLI(t, env, "list", "--cwd", project)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var list ops.ListOutput
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(list.Items) != 3 {
		t.Errorf("items = %d, want 3", len(list.Items))
	}

	if _, err := runCLI(t, env, "prune", "--cwd", project); err == nil {
		t.Error("expected error when --keep is missing")
	}

	_, err = runCLI(t, env, "prune", "--cwd", project, "--keep", "0")
	if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
		t.Errorf("expected [INVALID_REQUEST], got: %v", err)
	}

	out, err = runCLI(t, env, "prune", "--cwd", project, "--keep", "1")
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	var pruned ops.PruneOutput
	if err := json.Unmarshal([]byte(out), &pruned); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if pruned.Pruned != 2 {
		t.Errorf("pruned = %d, want 2", pruned.Pruned)
	}

	out, err = runCLI(t, env, "list", "--cwd", project, "--limit", "10")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(list.Items) != 1 {
		t.Errorf("items after prune = %d, want 1", len(list.Items))
	}
}

func TestCLIRepoConfigFollowsCwd(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()
	for i := 0; i < 3; i++ {
		if _, err := runCLI(t, env, "save", "--cwd", project); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}
	repoConfig := filepath.Join(project, config.RepoDirName, "config.json")
	if err := os.WriteFile(repoConfig, []byte(`{"list_limit": 2}`), 0600); err != nil {
		t.Fatal(err)
	}

	// The test binary runs outside project, so only --cwd can lead to its config.
	out, err := runCLI(t, env, "list", "--cwd", project)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var list ops.ListOutput
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(list.Items) != 2 || !list.Pagination.HasMore {
		t.Errorf("items = %d, has_more = %v, want 2 items from the project's list_limit", len(list.Items), list.Pagination.HasMore)
	}
	if env.Config.ListLimit != 2 {
		t.Errorf("env.Config.ListLimit = %d, want 2", env.Config.ListLimit)
	}
}

func TestCLIVerboseQuietFlags(t *testing.T) {
	env := testEnv(t)
	project := t.TempDir()

	if _, err := runCLI(t, env, "--verbose", "doctor", "--cwd", project); err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if !env.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("--verbose should enable debug logging")
	}
	if env.Git.Logger != env.Logger {
		t.Error("git inspector should share the CLI logger")
	}

	if _, err := runCLI(t, env, "-q", "doctor", "--cwd", project); err != nil {
		t.Fatalf("doctor failed: %v", err)
	}
	if env.Logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("--quiet should silence error logging")
	}
}

func TestOutputError(t *testing.T) {
	env := testEnv(t)
	_, err := runCLI(t, env, "save", "--cwd", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "[INVALID_REQUEST] ") {
		t.Errorf("error = %q, want [INVALID_REQUEST] prefix", err.Error())
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Error("yesNo mismatch")
	}
}
