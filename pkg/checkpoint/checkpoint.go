package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dermquiz/pkg/logger"
	"dermquiz/pkg/quiz"
)

// SchemaVersion is written into every checkpoint. Newer runs read older
// checkpoints by defaulting missing keys to empty.
const SchemaVersion = 3

// Checkpoint captures the full harvesting state: pagination cursors,
// accumulated buckets and counts. It is overwritten wholesale on every
// save; the harvester alone is responsible for constructing it.
type Checkpoint struct {
	Version        int    `json:"version"`
	TargetPerLabel int    `json:"target_per_label"`
	LesionsURL     string `json:"lesions_url,omitempty"`
	ScannedLesions int    `json:"scanned_lesions"`

	// SearchURLs holds the next-page cursor per search-harvested label.
	SearchURLs map[quiz.Label]string `json:"search_urls,omitempty"`

	Counts  map[quiz.Label]int         `json:"counts"`
	Buckets map[quiz.Label][]quiz.Case `json:"buckets"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty checkpoint for a fresh run.
func New(targetPerLabel int) *Checkpoint {
	return &Checkpoint{
		Version:        SchemaVersion,
		TargetPerLabel: targetPerLabel,
		SearchURLs:     make(map[quiz.Label]string),
		Counts:         make(map[quiz.Label]int),
		Buckets:        make(map[quiz.Label][]quiz.Case),
		CreatedAt:      time.Now(),
	}
}

// normalize makes a checkpoint decoded from an older schema safe to use:
// nil maps become empty ones.
func (c *Checkpoint) normalize() {
	if c.SearchURLs == nil {
		c.SearchURLs = make(map[quiz.Label]string)
	}
	if c.Counts == nil {
		c.Counts = make(map[quiz.Label]int)
	}
	if c.Buckets == nil {
		c.Buckets = make(map[quiz.Label][]quiz.Case)
	}
}

// SetBucket records a label's accumulated cases and count.
func (c *Checkpoint) SetBucket(label quiz.Label, cases []quiz.Case) {
	c.Buckets[label] = cases
	c.Counts[label] = len(cases)
}

// Manager persists checkpoints to a single JSON file.
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a checkpoint manager writing to dir/filename. The
// directory is created if needed.
func NewManager(dir, filename string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{
		path:   filepath.Join(dir, filename),
		logger: log,
	}, nil
}

// Path returns the checkpoint file path.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the checkpoint. A missing or malformed file is treated as "no
// checkpoint" so an interrupted or corrupted run starts fresh rather than
// failing.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		m.logger.WarnWithFields("checkpoint file is malformed, starting fresh", map[string]interface{}{
			"path":  m.path,
			"error": err.Error(),
		})
		return nil, nil
	}

	checkpoint.normalize()

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"path":            m.path,
		"scanned_lesions": checkpoint.ScannedLesions,
		"updated_at":      checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save writes the full checkpoint atomically: encode to a temp file, fsync,
// then rename over the previous one. A crash mid-save never corrupts the
// readable checkpoint.
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.Version = SchemaVersion
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"path":            m.path,
		"scanned_lesions": checkpoint.ScannedLesions,
	})

	return nil
}

// Delete removes the checkpoint file.
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("checkpoint deleted")
	return nil
}

// Exists checks whether a checkpoint file is present.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
