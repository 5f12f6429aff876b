package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/edgard/dayplanbot/internal/tracker"
)

// FileRepository stores all channel states in one JSON object keyed by channel
// id. Writes go to a temporary file that is renamed over the target.
type FileRepository struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileRepository returns a repository for the JSON file at path.
func NewFileRepository(path string, logger *slog.Logger) *FileRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileRepository{
		path:   path,
		logger: logger.With("component", "file_repository"),
	}
}

// Path returns the file the repository reads and writes.
func (r *FileRepository) Path() string { return r.path }

// Load implements tracker.Repository. A missing file is an empty store.
func (r *FileRepository) Load(ctx context.Context) (map[string]*tracker.ChannelState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.InfoContext(ctx, "Task store file not found, starting empty", "path", r.path)
		return map[string]*tracker.ChannelState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task store %s: %w", r.path, err)
	}

	states := map[string]*tracker.ChannelState{}
	if len(data) == 0 {
		return states, nil
	}
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to decode task store %s: %w", r.path, err)
	}
	return states, nil
}

// Save implements tracker.Repository.
func (r *FileRepository) Save(_ context.Context, states map[string]*tracker.ChannelState) error {
	data, err := json.MarshalIndent(states, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode task store: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create task store directory: %w", err)
		}
	}
	if err := writeAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write task store %s: %w", r.path, err)
	}
	return nil
}

func writeAtomic(path string, content []byte, perm os.FileMode) error {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := file.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		cleanup()
		return err
	}
	if err := file.Chmod(perm); err != nil {
		_ = file.Close()
		cleanup()
		return err
	}
	if err := file.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
