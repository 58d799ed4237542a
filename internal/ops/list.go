package ops

import (
	"context"

	"github.com/hpungsan/lifeline/internal/db"
	"github.com/hpungsan/lifeline/internal/snapshot"
	"github.com/hpungsan/lifeline/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Cwd    string // optional, default: process working directory
	Limit  int    // default: config list_limit (20), max: 100
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []snapshot.IndexEntry `json:"items"`
	Pagination Pagination            `json:"pagination"`
	Sort       string                `json:"sort"`
}

// List returns the indexed snapshots of a project, newest first.
// A project that has never been saved yields an empty list.
func List(ctx context.Context, env *Env, input ListInput) (*ListOutput, error) {
	cwd, err := resolveCwd(input.Cwd)
	if err != nil {
		return nil, err
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = env.Config.ListLimit
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	// Ensure offset is non-negative
	offset := max(input.Offset, 0)

	output := &ListOutput{
		Items:      []snapshot.IndexEntry{},
		Pagination: Pagination{Limit: limit, Offset: offset},
		Sort:       "created_at_desc",
	}

	database, err := openIndexIfExists(ctx, store.PathsFor(cwd), env.Config)
	if err != nil {
		return nil, err
	}
	if database == nil {
		return output, nil
	}
	defer database.Close()

	entries, total, err := db.ListByCwd(ctx, database, cwd, limit, offset)
	if err != nil {
		return nil, err
	}

	output.Items = entries
	output.Pagination.Total = total
	output.Pagination.HasMore = offset+len(entries) < total
	return output, nil
}
