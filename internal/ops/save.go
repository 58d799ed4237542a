package ops

import (
	"context"

	"github.com/hpungsan/lifeline/internal/db"
	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/store"
)

// SaveInput contains parameters for the Save operation.
type SaveInput struct {
	Cwd   string // optional, default: process working directory
	Focus string // optional note for the next session
}

// SaveOutput contains the result of the Save operation.
type SaveOutput struct {
	Snapshot *snapshot.Snapshot `json:"snapshot"`
	Archive  string             `json:"archive"`
	Latest   string             `json:"latest"`
}

// Save builds a snapshot of the project and persists it to the project's store:
// the timestamped archive, latest.json, and an index row.
// Only a store that cannot be created or written fails the operation.
func Save(ctx context.Context, env *Env, input SaveInput) (*SaveOutput, error) {
	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}

	paths := store.PathsFor(cwd)
	if err := store.Ensure(paths); err != nil {
		return nil, err
	}

	now := env.Now()
	snap := Build(ctx, env.Git, env.Logger, BuildInput{
		Cwd:       cwd,
		Focus:     input.Focus,
		ClaudeDir: env.ClaudeDir(),
		Now:       now,
		Version:   env.Version,
	})

	archive, err := store.Write(paths, snap, now)
	if err != nil {
		return nil, err
	}

	database, err := openIndex(paths, env.Config)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	if err := db.Insert(ctx, database, snap.ToEntry(archive, now.UnixMilli())); err != nil {
		return nil, errors.NewStoreUnwritable(paths.StoreDir, err)
	}

	env.Logger.Info("snapshot saved", "archive", archive, "id", snap.ID)
	return &SaveOutput{
		Snapshot: snap,
		Archive:  archive,
		Latest:   paths.LatestPath,
	}, nil
}
