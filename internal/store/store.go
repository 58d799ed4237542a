// Package store persists snapshots under <project>/.agent-lifeline/.
//
// Layout:
//
//	.agent-lifeline/
//	  latest.json              most recent snapshot
//	  snapshots/<stamp>.json   one archive per save, stamp = local YYYYMMDD-HHMMSS
//	  index.db                 SQLite index of saved snapshots
//
// Files are written atomically (temp file + rename) and never through a symlink.
package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/lifeline/internal/config"
	"github.com/hpungsan/lifeline/internal/errors"
	"github.com/hpungsan/lifeline/internal/snapshot"
)

const (
	// LatestFile is the pointer to the most recent snapshot.
	LatestFile = "latest.json"

	// SnapshotsDir holds the timestamped archives.
	SnapshotsDir = "snapshots"

	// IndexFile is the SQLite index of saved snapshots.
	IndexFile = "index.db"

	// archiveLayout names archives so that lexical order is chronological order.
	archiveLayout = "20060102-150405"
)

// Paths locates every file of a project's store.
type Paths struct {
	BaseDir      string `json:"baseDir"`
	StoreDir     string `json:"storeDir"`
	LatestPath   string `json:"latestPath"`
	SnapshotsDir string `json:"snapshotsDir"`
	IndexPath    string `json:"indexPath"`
}

// PathsFor returns the store layout for the project rooted at baseDir.
func PathsFor(baseDir string) Paths {
	storeDir := filepath.Join(baseDir, config.RepoDirName)
	return Paths{
		BaseDir:      baseDir,
		StoreDir:     storeDir,
		LatestPath:   filepath.Join(storeDir, LatestFile),
		SnapshotsDir: filepath.Join(storeDir, SnapshotsDir),
		IndexPath:    filepath.Join(storeDir, IndexFile),
	}
}

// Ensure creates the store and archive directories (0700) if missing.
// Failure is reported as STORE_UNWRITABLE.
func Ensure(p Paths) error {
	for _, dir := range []string{p.StoreDir, p.SnapshotsDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.NewStoreUnwritable(p.StoreDir, err)
		}
	}
	return nil
}

// ArchiveName returns the archive file name for a snapshot saved at t (local time).
func ArchiveName(t time.Time) string {
	return t.Local().Format(archiveLayout) + ".json"
}

// Encode renders a snapshot as the on-disk document: pretty JSON with 2-space indent.
func Encode(s *snapshot.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Write stores s as snapshots/<stamp>.json and latest.json and returns the archive path.
func Write(p Paths, s *snapshot.Snapshot, savedAt time.Time) (string, error) {
	data, err := Encode(s)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	archive := filepath.Join(p.SnapshotsDir, ArchiveName(savedAt))
	if err := WriteFileAtomic(archive, data); err != nil {
		return "", errors.NewStoreUnwritable(p.StoreDir, err)
	}
	if err := WriteFileAtomic(p.LatestPath, data); err != nil {
		return "", errors.NewStoreUnwritable(p.StoreDir, err)
	}
	return archive, nil
}

// ReadLatest loads latest.json. A missing or unparseable file is reported as NOT_FOUND.
func ReadLatest(p Paths) (*snapshot.Snapshot, error) {
	s, err := ReadSnapshot(p.LatestPath)
	if err != nil {
		return nil, errors.NewNoSnapshot(p.LatestPath)
	}
	return s, nil
}

// ReadSnapshot loads and decodes one snapshot document.
func ReadSnapshot(path string) (*snapshot.Snapshot, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var s snapshot.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &s, nil
}

// ListArchives returns archive paths newest first. A missing directory yields nil.
func ListArchives(p Paths) ([]string, error) {
	entries, err := os.ReadDir(p.SnapshotsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list archives: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(p.SnapshotsDir, name)
	}
	return paths, nil
}

// RemoveArchives deletes the given archive files. Paths outside the archive directory
// are refused so a stale index row can never delete anything else.
func RemoveArchives(p Paths, files []string) ([]string, error) {
	var removed []string
	for _, file := range files {
		if filepath.Dir(filepath.Clean(file)) != filepath.Clean(p.SnapshotsDir) {
			return removed, errors.NewInvalidRequest(fmt.Sprintf("refusing to remove %s: not an archive", file))
		}
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			return removed, errors.NewStoreUnwritable(p.StoreDir, err)
		}
		removed = append(removed, file)
	}
	return removed, nil
}

// CheckWritable reports whether dir can be created and written to, by writing and
// removing a scratch file.
func CheckWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return false
	}
	scratch := filepath.Join(dir, ".write-test")
	if err := WriteFileAtomic(scratch, []byte("ok")); err != nil {
		return false
	}
	return os.Remove(scratch) == nil
}

// WriteFileAtomic writes data to a temp file beside path and renames it into place,
// so readers see either the old or the new content. The destination must not be a symlink.
func WriteFileAtomic(path string, data []byte) error {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("%s is a symlink", path))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generate temp file name: %w", err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	success = true
	return nil
}
