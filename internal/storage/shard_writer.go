// Path: internal/storage/shard_writer.go
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by reads of artifacts that were never written.
var ErrNotFound = errors.New("storage: not found")

// Shard is one serialized slice written under several paths. Paths are
// relative to the data directory.
type Shard struct {
	Name  string
	Paths []string
	Body  any
}

// ShardWriter persists shards as pretty-printed JSON files.
type ShardWriter struct {
	dir string
}

// NewShardWriter creates a writer rooted at dir. Directories are created on
// first write.
func NewShardWriter(dir string) *ShardWriter {
	return &ShardWriter{dir: dir}
}

// Dir returns the data directory.
func (w *ShardWriter) Dir() string { return w.dir }

// WriteAll writes every shard to every one of its paths. A failed file does
// not stop the others; all errors are joined. It returns how many files
// were written.
func (w *ShardWriter) WriteAll(shards []Shard) (int, error) {
	var (
		written int
		errs    []error
	)
	for _, s := range shards {
		data, err := json.MarshalIndent(s.Body, "", "  ")
		if err != nil {
			errs = append(errs, fmt.Errorf("encode shard %s: %w", s.Name, err))
			continue
		}
		data = append(data, '\n')
		for _, rel := range s.Paths {
			if err := writeFileAtomic(filepath.Join(w.dir, rel), data); err != nil {
				errs = append(errs, err)
				continue
			}
			written++
		}
	}
	return written, errors.Join(errs...)
}

// ReadJSON decodes the file at rel into v. Missing files yield ErrNotFound.
func (w *ShardWriter) ReadJSON(rel string, v any) error {
	data, err := os.ReadFile(filepath.Join(w.dir, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s: %w", rel, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write tmp %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
