package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/lifeline/internal/config"
	"github.com/hpungsan/lifeline/internal/db"
	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/gitstate"
	"github.com/hpungsan/lifeline/internal/logging"
	"github.com/hpungsan/lifeline/internal/store"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Env carries the process-wide dependencies shared by every operation.
type Env struct {
	Config  *config.Config
	HomeDir string
	Version string
	Logger  *slog.Logger
	Git     *gitstate.Inspector
	Now     func() time.Time
}

// NewEnv builds an Env using the real git binary and wall clock.
func NewEnv(cfg *config.Config, homeDir, version string, logger *slog.Logger) *Env {
	logger = logging.OrDiscard(logger)
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Env{
		Config:  cfg,
		HomeDir: homeDir,
		Version: version,
		Logger:  logger,
		Git:     gitstate.New(logger),
		Now:     time.Now,
	}
}

// ClaudeDir is the agent state root for this environment.
func (e *Env) ClaudeDir() string {
	return e.Config.ResolveClaudeDir(e.HomeDir)
}

// resolveCwd turns the requested project directory into a clean absolute path.
// Empty means the process working directory. The directory must exist.
func resolveCwd(cwd string) (string, error) {
	cwd = strings.TrimSpace(cwd)
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.NewInternal(fmt.Errorf("failed to get working directory: %w", err))
		}
		cwd = wd
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid cwd: %v", err))
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.NewInvalidRequest(fmt.Sprintf("cwd is not a directory: %s", abs))
	}
	return abs, nil
}

// openIndex opens the project's snapshot index. Failure is reported as STORE_UNWRITABLE.
func openIndex(p store.Paths, cfg *config.Config) (*sql.DB, error) {
	database, err := db.Init(p.StoreDir)
	if err != nil {
		return nil, errors.NewStoreUnwritable(p.StoreDir, err)
	}
	db.ConfigurePool(database, cfg)
	return database, nil
}

// openIndexIfExists opens the index only when it has already been created, so read-only
// operations never create a store as a side effect. Returns nil when absent.
func openIndexIfExists(ctx context.Context, p store.Paths, cfg *config.Config) (*sql.DB, error) {
	if _, err := os.Stat(p.IndexPath); err != nil {
		return nil, nil
	}
	database, err := openIndex(p, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, errors.NewStoreUnwritable(p.StoreDir, err)
	}
	return database, nil
}
