package ops

import (
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/store"
)

// ShowInput contains parameters for the Show operation.
type ShowInput struct {
	Cwd string // optional, default: process working directory
}

// ShowOutput contains the result of the Show operation.
type ShowOutput struct {
	Snapshot *snapshot.Snapshot `json:"snapshot"`
	Path     string             `json:"path"`
}

// Show loads the project's latest snapshot.
// Returns NOT_FOUND when no snapshot has been saved or latest.json cannot be parsed.
func Show(input ShowInput) (*ShowOutput, error) {
	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}

	paths := store.PathsFor(cwd)
	snap, err := store.ReadLatest(paths)
	if err != nil {
		return nil, err
	}
	return &ShowOutput{Snapshot: snap, Path: paths.LatestPath}, nil
}
