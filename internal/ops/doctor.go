package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hpungsan/lifeline/internal/claude"
	"github.com/hpungsan/lifeline/internal/store"
)

// DoctorInput contains parameters for the Doctor operation.
type DoctorInput struct {
	Cwd string // optional, default: process working directory
}

// DoctorOutput reports whether each input source and the store are usable.
type DoctorOutput struct {
	Version       string       `json:"version"`
	Cwd           string       `json:"cwd"`
	StoreDir      string       `json:"storeDir"`
	WritableStore bool         `json:"writableStore"`
	Git           DoctorGit    `json:"git"`
	Claude        DoctorClaude `json:"claude"`
}

// DoctorGit describes git availability.
type DoctorGit struct {
	Available  bool   `json:"available"`
	Version    string `json:"version,omitempty"`
	InsideRepo bool   `json:"insideRepo"`
	Details    string `json:"details"`
}

// DoctorClaude describes the agent state directory.
type DoctorClaude struct {
	Dir            string `json:"dir"`
	DirExists      bool   `json:"dirExists"`
	HistoryExists  bool   `json:"historyExists"`
	ProjectsExists bool   `json:"projectsExists"`
}

// Doctor checks the environment a save depends on. It never fails on a missing input;
// every problem is reported as a field of the output.
func Doctor(ctx context.Context, env *Env, input DoctorInput) (*DoctorOutput, error) {
	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}
	paths := store.PathsFor(cwd)

	out := &DoctorOutput{
		Version:       env.Version,
		Cwd:           cwd,
		StoreDir:      paths.StoreDir,
		WritableStore: store.CheckWritable(paths.StoreDir),
	}

	version, err := env.Git.Version(ctx, cwd)
	out.Git.Available = err == nil
	out.Git.Version = version
	out.Git.InsideRepo = out.Git.Available && env.Git.InsideWorkTree(ctx, cwd)
	switch {
	case !out.Git.Available:
		out.Git.Details = "not available"
	case !out.Git.InsideRepo:
		out.Git.Details = "not in git repo"
	default:
		out.Git.Details = "ok"
	}

	claudeDir := env.ClaudeDir()
	out.Claude = DoctorClaude{
		Dir:            claudeDir,
		DirExists:      exists(claudeDir),
		HistoryExists:  exists(filepath.Join(claudeDir, claude.HistoryFile)),
		ProjectsExists: exists(filepath.Join(claudeDir, claude.ProjectsDir)),
	}

	return out, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
