// Package store persists every artifact the engine produces as flat JSON
// under a single data directory, the same tree the map frontend serves.
// Writes are staged to a temp file and renamed so readers never observe a
// torn artifact.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sentinel errors surfaced to callers.
var (
	// ErrNotFound means the requested artifact has not been written yet.
	ErrNotFound = errors.New("artifact not found")

	// ErrSnapshotExists guards committed snapshots against accidental
	// double-processing. Identical content does not trigger it.
	ErrSnapshotExists = errors.New("snapshot already exists with different content")
)

// Store reads and writes JSON artifacts rooted at a data directory.
type Store struct {
	dataDir string
}

// New creates a store rooted at dataDir.
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// DataDir returns the artifact root.
func (s *Store) DataDir() string {
	return s.dataDir
}

// abs resolves an artifact-relative path.
func (s *Store) abs(rel string) string {
	return filepath.Join(s.dataDir, filepath.FromSlash(rel))
}

// marshal renders an artifact the way every writer does: two-space indent
// with a trailing newline. Deterministic for maps (keys sort on encode),
// which is what makes the byte-identical snapshot check meaningful.
func marshal(v interface{}) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// writeJSON atomically writes an artifact, creating parent directories.
func (s *Store) writeJSON(rel string, v interface{}) error {
	raw, err := marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return s.writeBytes(rel, raw)
}

func (s *Store) writeBytes(rel string, raw []byte) error {
	path := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit %s: %w", rel, err)
	}
	return nil
}

// readJSON decodes an artifact, mapping a missing file to ErrNotFound.
func (s *Store) readJSON(rel string, v interface{}) error {
	raw, err := os.ReadFile(s.abs(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

// sameContent reports whether an existing artifact matches raw byte-for-byte.
func (s *Store) sameContent(rel string, raw []byte) (bool, error) {
	existing, err := os.ReadFile(s.abs(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", rel, err)
	}
	return bytes.Equal(existing, raw), nil
}

func (s *Store) exists(rel string) bool {
	_, err := os.Stat(s.abs(rel))
	return err == nil
}
