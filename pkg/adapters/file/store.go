package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/aretw0/speriment/pkg/domain"
)

const ext = ".js"

// Store implements ports.ArtifactStore on the local filesystem.
// Each artifact is a host script `<BasePath>/<name>.js` containing `var <name> = <json>`,
// ready to be included by the experiment page.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to "artifacts".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "artifacts"
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.BasePath, name+ext)
}

// Save writes the host script atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, name string, artifact []byte) error {
	script, err := domain.Script(name, artifact)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure artifact directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	// The dash keeps temp files out of List.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(script); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(name)
	if runtime.GOOS == "windows" {
		// os.Rename does not replace an existing file there.
		if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove existing artifact for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file to artifact: %w", err)
	}
	return nil
}

// Load reads the host script and strips the variable binding.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	if !domain.ValidVariableName(name) {
		return nil, domain.ErrArtifactNotFound
	}

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}

	bound, artifact, err := domain.Unscript(data)
	if err != nil {
		return nil, fmt.Errorf("artifact file %s: %w", s.path(name), err)
	}
	if bound != name {
		return nil, fmt.Errorf("artifact file %s binds %q, expected %q: %w", s.path(name), bound, name, domain.ErrNotScript)
	}
	return artifact, nil
}

// Delete removes the artifact file.
func (s *Store) Delete(ctx context.Context, name string) error {
	if !domain.ValidVariableName(name) {
		return nil
	}
	err := os.Remove(s.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete artifact file: %w", err)
	}
	return nil
}

// List returns the names of all artifact files in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	names := []string{}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ext)
		if entry.IsDir() || !ok || !domain.ValidVariableName(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
