package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores keys in a small JSON document, one entry per key.
type FileBackend struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileBackend stores under key in the JSON file at path.
func NewFileBackend(path, key string) *FileBackend {
	return &FileBackend{path: path, key: key}
}

func (b *FileBackend) readAll() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	payload, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	if len(payload) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return doc, nil
}

// Load returns the list saved under the key, or nil if none.
func (b *FileBackend) Load(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.readAll()
	if err != nil {
		return nil, err
	}
	raw, ok := doc[b.key]
	if !ok {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("decode %q: %w", b.key, err)
	}
	return labels, nil
}

// Save overwrites the key's list, leaving other keys in the document untouched.
// The file is replaced atomically.
func (b *FileBackend) Save(_ context.Context, labels []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, err := b.readAll()
	if err != nil {
		return err
	}
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("encode %q: %w", b.key, err)
	}
	doc[b.key] = raw

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", b.path, err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}
