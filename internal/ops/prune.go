package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/lifeline/internal/db"
	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/store"
)

// PruneInput contains parameters for the Prune operation.
type PruneInput struct {
	Cwd  string // optional, default: process working directory
	Keep int    // required, at least 1
}

// PruneOutput contains the result of the Prune operation.
type PruneOutput struct {
	Pruned  int      `json:"pruned"`
	Kept    int      `json:"kept"`
	Files   []string `json:"files"`
	Message string   `json:"message"`
}

// Prune deletes all but the newest Keep archived snapshots and their index rows.
// latest.json is never touched.
func Prune(ctx context.Context, env *Env, input PruneInput) (*PruneOutput, error) {
	if input.Keep < 1 {
		return nil, errors.NewInvalidRequest("keep must be at least 1")
	}

	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}
	paths := store.PathsFor(cwd)

	archives, err := store.ListArchives(paths)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	output := &PruneOutput{Files: []string{}}
	if len(archives) <= input.Keep {
		output.Kept = len(archives)
		output.Message = formatPruneMessage(0)
		return output, nil
	}

	removed, err := removeArchives(ctx, env, paths, archives[input.Keep:])
	if err != nil {
		return nil, err
	}

	output.Pruned = len(removed)
	output.Kept = input.Keep
	output.Files = removed
	output.Message = formatPruneMessage(len(removed))
	return output, nil
}

// removeArchives deletes the archive files and then the index rows of every file actually
// removed. When removal stops partway the rows of the files already gone are still deleted
// before the removal error is returned.
func removeArchives(ctx context.Context, env *Env, paths store.Paths, files []string) ([]string, error) {
	removed, removeErr := store.RemoveArchives(paths, files)
	if err := unindex(ctx, env, paths, removed); err != nil {
		if removeErr != nil {
			env.Logger.Warn("index rows left for removed archives", "count", len(removed), "error", err)
			return nil, removeErr
		}
		return nil, err
	}
	if removeErr != nil {
		return nil, removeErr
	}
	return removed, nil
}

// unindex deletes the index rows for files. A missing index is left alone.
func unindex(ctx context.Context, env *Env, paths store.Paths, files []string) error {
	if len(files) == 0 {
		return nil
	}
	database, err := openIndexIfExists(ctx, paths, env.Config)
	if err != nil {
		return err
	}
	if database == nil {
		return nil
	}
	defer database.Close()

	n, err := db.DeleteByFiles(ctx, database, files)
	if err != nil {
		return errors.NewStoreUnwritable(paths.StoreDir, err)
	}
	env.Logger.Debug("pruned index rows", "count", n)
	return nil
}

// formatPruneMessage creates a human-readable message for the prune result.
func formatPruneMessage(count int) string {
	if count == 0 {
		return "No snapshots to prune"
	}
	word := "snapshot"
	if count > 1 {
		word = "snapshots"
	}
	return fmt.Sprintf("Deleted %d archived %s", count, word)
}
