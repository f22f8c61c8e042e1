package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
)

// DefaultDir is used when no directory is configured.
var DefaultDir = filepath.Join(".quire", "drafts")

const ext = ".json"

// DraftStore implements ports.DraftStore with one JSON file per session.
type DraftStore struct {
	BasePath string
}

// NewDraftStore creates a store rooted at basePath, or DefaultDir if empty.
func NewDraftStore(basePath string) *DraftStore {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &DraftStore{BasePath: basePath}
}

func (s *DraftStore) path(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+ext), nil
}

// Save writes the draft atomically: temp file, fsync, rename.
func (s *DraftStore) Save(ctx context.Context, sessionID string, draft *domain.Draft) error {
	dest, err := s.path(sessionID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	return WriteAtomic(dest, data)
}

// WriteAtomic replaces path with data so that readers never observe a
// partially written file. Parent directories are created as needed.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads a draft file.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (*domain.Draft, error) {
	p, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", sessionID, err)
	}
	return &d, nil
}

// Delete removes a draft file.
func (s *DraftStore) Delete(ctx context.Context, sessionID string) error {
	p, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// List returns the ids of all draft files.
func (s *DraftStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || filepath.Ext(name) != ext {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	return ids, nil
}
