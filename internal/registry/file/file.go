package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/songzhibin97/kolwatch/internal/models"
)

// FileRegistry keeps tracked accounts in a single JSON document on disk.
// The file is re-read on every call so that edits made by another process are picked up.
type FileRegistry struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

type document struct {
	Kols []models.TrackedAccount `json:"kols"`
}

func NewFileRegistry(path string) (*FileRegistry, error) {
	r := &FileRegistry{path: path, now: time.Now}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close implements io.Closer.
func (r *FileRegistry) Close() error { return nil }

// List implements Registry interface; newest accounts first.
func (r *FileRegistry) List(ctx context.Context) ([]models.TrackedAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(doc.Kols, func(i, j int) bool {
		return doc.Kols[i].CreatedAt.After(doc.Kols[j].CreatedAt)
	})
	return doc.Kols, nil
}

// Create implements Registry interface
func (r *FileRegistry) Create(ctx context.Context, handle string) (*models.TrackedAccount, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}

	for _, kol := range doc.Kols {
		if strings.EqualFold(kol.Handle, handle) {
			existing := kol
			return &existing, nil
		}
	}

	now := r.now().UTC()
	kol := models.TrackedAccount{
		ID:        uuid.NewString(),
		Handle:    handle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.Kols = append(doc.Kols, kol)

	if err := r.save(doc); err != nil {
		return nil, err
	}
	return &kol, nil
}

// Delete implements Registry interface
func (r *FileRegistry) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return false, err
	}

	kept := doc.Kols[:0]
	for _, kol := range doc.Kols {
		if kol.ID != id {
			kept = append(kept, kol)
		}
	}
	if len(kept) == len(doc.Kols) {
		return false, nil
	}

	doc.Kols = kept
	if err := r.save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateCursor implements Registry interface
func (r *FileRegistry) UpdateCursor(ctx context.Context, id, postID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return false, err
	}

	for i := range doc.Kols {
		if doc.Kols[i].ID == id {
			doc.Kols[i].LastSeenPostID = postID
			doc.Kols[i].UpdatedAt = r.now().UTC()
			if err := r.save(doc); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *FileRegistry) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	_, err := os.Stat(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return r.save(&document{Kols: []models.TrackedAccount{}})
	}
	if err != nil {
		return fmt.Errorf("failed to stat data file: %w", err)
	}
	return nil
}

func (r *FileRegistry) load() (*document, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return doc, nil
}

// save writes through a temp file and rename so a crash never leaves a truncated document.
func (r *FileRegistry) save(doc *document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode data file: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
