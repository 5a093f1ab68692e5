package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dermquiz/pkg/logger"
	"dermquiz/pkg/quiz"
)

// Manager owns the working directory holding the output artifact and
// checkpoint file.
type Manager struct {
	dir    string
	logger logger.Logger
}

// NewManager creates a storage manager rooted at dir, creating it if
// needed.
func NewManager(dir string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Manager{dir: dir, logger: log}, nil
}

// Dir returns the managed directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the path of a file inside the managed directory.
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.dir, filename)
}

// WritePayload serializes the full payload in memory, then writes it to a
// temp file and renames it into place. Downstream readers never observe a
// partial file.
func (m *Manager) WritePayload(filename string, payload *quiz.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	path := m.Path(filename)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary output file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	m.logger.InfoWithFields("output written", map[string]interface{}{
		"path": path,
		"size": len(data),
	})

	return nil
}
