package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// KV is a persistent key-value slot holding JSON-encoded values.
type KV interface {
	// Get decodes the value stored under key into v. It reports false, and
	// leaves v untouched, if nothing is stored.
	Get(ctx context.Context, key string, v any) (bool, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, v any) error
}

// FileKV keeps every key in a single JSON object on disk.
type FileKV struct {
	path string
}

var _ KV = (*FileKV)(nil)

// NewFileKV creates a FileKV backed by storage.json in dir.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileKV{path: filepath.Join(dir, "storage.json")}, nil
}

// Path returns the path of the backing file.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	slots := map[string]json.RawMessage{}
	if len(data) == 0 {
		return slots, nil
	}
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return slots, nil
}

// Get implements KV.
func (f *FileKV) Get(_ context.Context, key string, v any) (bool, error) {
	slots, err := f.read()
	if err != nil {
		return false, err
	}
	raw, ok := slots[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return true, nil
}

// Set implements KV. The file is rewritten through a temporary file so a
// crash mid-write never leaves a truncated store behind.
func (f *FileKV) Set(_ context.Context, key string, v any) error {
	slots, err := f.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	slots[key] = raw

	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
