package snapshot

// IndexEntry is the index row recorded for every saved snapshot.
// Used by list and prune so archives can be browsed without parsing each file.
type IndexEntry struct {
	// ID is the snapshot ULID
	ID string `json:"id"`

	// Cwd is the project directory the snapshot was taken in
	Cwd string `json:"cwd"`

	// File is the absolute path of the archived snapshot document
	File string `json:"file"`

	// CreatedAt is the Unix timestamp in milliseconds
	CreatedAt int64 `json:"createdAt"`

	// Branch is the git branch at save time (nullable when not a work tree)
	Branch *string `json:"branch"`

	// Dirty reports uncommitted changes at save time
	Dirty bool `json:"dirty"`

	// TaskCount is the number of open tasks recognized
	TaskCount int `json:"taskCount"`

	// Focus is the note passed to save (nullable)
	Focus *string `json:"focus"`
}

// ToEntry builds the index row for a snapshot archived at file.
func (s *Snapshot) ToEntry(file string, createdAtMillis int64) IndexEntry {
	e := IndexEntry{
		ID:        s.ID,
		Cwd:       s.Cwd,
		File:      file,
		CreatedAt: createdAtMillis,
		TaskCount: s.Tasks.Count,
		Focus:     s.Focus,
	}
	if s.Git != nil {
		branch := s.Git.Branch
		e.Branch = &branch
		e.Dirty = s.Git.Dirty
	}
	return e
}
