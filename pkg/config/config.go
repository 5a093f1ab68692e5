package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for a dermquiz run.
type Config struct {
	// ISIC Archive API settings
	API APIConfig `yaml:"api" json:"api"`

	// Harvesting targets and strategies
	Harvest HarvestConfig `yaml:"harvest" json:"harvest"`

	// Retry behaviour for page fetches
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Quiz set construction
	Sets SetsConfig `yaml:"sets" json:"sets"`

	// Two-label quiz modules to assemble
	Modules []ModuleConfig `yaml:"modules" json:"modules"`

	// Output artifact settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds ISIC Archive API settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	PageLimit      int           `yaml:"page_limit" json:"page_limit"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// HarvestConfig holds per-label harvesting targets and strategy selection.
type HarvestConfig struct {
	TargetPerLabel int           `yaml:"target_per_label" json:"target_per_label"`
	ScanCap        int           `yaml:"scan_cap" json:"scan_cap"`
	PageDelay      time.Duration `yaml:"page_delay" json:"page_delay"`
	LesionDedup    bool          `yaml:"lesion_dedup" json:"lesion_dedup"`

	// StreamLabels are filled from the lesion-listing stream.
	StreamLabels []string `yaml:"stream_labels" json:"stream_labels"`

	// Searches are filled via the image search endpoint, one query per label.
	Searches []SearchConfig `yaml:"searches" json:"searches"`
}

// SearchConfig describes one targeted image-search harvest.
type SearchConfig struct {
	Label string `yaml:"label" json:"label"`
	Query string `yaml:"query" json:"query"`

	// RequireHistopathology enables the strict two-pass policy: first pass
	// accepts histopathology-confirmed cases only, second pass restarts
	// pagination and accepts clinically confirmed cases as well.
	RequireHistopathology bool `yaml:"require_histopathology" json:"require_histopathology"`
}

// RetryConfig bounds the fetch retry loop.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// SetsConfig controls deterministic quiz set construction.
type SetsConfig struct {
	Count             int `yaml:"count" json:"count"`
	PreferredPerClass int `yaml:"preferred_per_class" json:"preferred_per_class"`
	FallbackPerClass  int `yaml:"fallback_per_class" json:"fallback_per_class"`
}

// ModuleConfig names one two-label quiz module.
type ModuleConfig struct {
	Name   string `yaml:"name" json:"name"`
	LabelA string `yaml:"label_a" json:"label_a"`
	LabelB string `yaml:"label_b" json:"label_b"`
}

// OutputConfig holds the working directory and output artifact settings.
type OutputConfig struct {
	DataDir        string `yaml:"data_dir" json:"data_dir"`
	QuizFile       string `yaml:"quiz_file" json:"quiz_file"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	Brand          string `yaml:"brand" json:"brand"`
	Audience       string `yaml:"audience" json:"audience"`
	Note           string `yaml:"note" json:"note"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with the canonical harvesting setup:
// lesion-stream discovery for the four common labels, targeted search for
// sebaceous hyperplasia and Bowen's disease, three five-per-class sets per
// module with a three-per-class fallback.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.isic-archive.com",
			PageLimit:      200,
			RequestTimeout: 45 * time.Second,
		},
		Harvest: HarvestConfig{
			TargetPerLabel: 15,
			ScanCap:        50000,
			PageDelay:      100 * time.Millisecond,
			LesionDedup:    true,
			StreamLabels:   []string{"melanoma", "nevus", "bcc", "actinic_keratosis"},
			Searches: []SearchConfig{
				{
					Label: "sebaceous_hyperplasia",
					Query: `diagnosis_3:"Sebaceous hyperplasia"`,
				},
				{
					Label: "bowen",
					Query: `diagnosis_3:"Squamous cell carcinoma in situ"`,
				},
			},
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			BaseDelay:   2 * time.Second,
			MaxDelay:    20 * time.Second,
		},
		Sets: SetsConfig{
			Count:             3,
			PreferredPerClass: 5,
			FallbackPerClass:  3,
		},
		Modules: []ModuleConfig{
			{Name: "mel_vs_nevus", LabelA: "melanoma", LabelB: "nevus"},
			{Name: "bcc_vs_sh", LabelA: "bcc", LabelB: "sebaceous_hyperplasia"},
			{Name: "ak_vs_bowen", LabelA: "actinic_keratosis", LabelB: "bowen"},
		},
		Output: OutputConfig{
			DataDir:        "./data",
			QuizFile:       "isic_quiz_sets.json",
			CheckpointFile: "isic_checkpoint.json",
			Brand:          "Stichting HUID",
			Audience:       "Huisartsen / AIOS dermatologie",
			Note:           "Fixed quiz sets (not random)",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides configuration from DERMQUIZ_* environment variables.
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("DERMQUIZ_API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if dataDir := os.Getenv("DERMQUIZ_DATA_DIR"); dataDir != "" {
		c.Output.DataDir = dataDir
	}
	if target := os.Getenv("DERMQUIZ_TARGET_PER_LABEL"); target != "" {
		if val, err := strconv.Atoi(target); err == nil && val > 0 {
			c.Harvest.TargetPerLabel = val
		}
	}
	if limit := os.Getenv("DERMQUIZ_PAGE_LIMIT"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			c.API.PageLimit = val
		}
	}
	if logLevel := os.Getenv("DERMQUIZ_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls
// back to the standard locations; a missing file is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".dermquiz.yaml",
		".dermquiz.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "dermquiz", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".dermquiz.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.PageLimit <= 0 {
		errs = append(errs, errors.New("page limit must be positive"))
	}

	if c.Harvest.TargetPerLabel <= 0 {
		errs = append(errs, errors.New("target per label must be positive"))
	}
	if c.Harvest.ScanCap <= 0 {
		errs = append(errs, errors.New("scan cap must be positive"))
	}
	for _, s := range c.Harvest.Searches {
		if s.Label == "" || s.Query == "" {
			errs = append(errs, errors.New("search harvests require both label and query"))
		}
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry attempts must be positive"))
	}

	if c.Sets.Count <= 0 {
		errs = append(errs, errors.New("set count must be positive"))
	}
	if c.Sets.PreferredPerClass <= 0 || c.Sets.FallbackPerClass <= 0 {
		errs = append(errs, errors.New("per-class set sizes must be positive"))
	}
	if c.Sets.FallbackPerClass > c.Sets.PreferredPerClass {
		errs = append(errs, errors.New("fallback per-class size cannot exceed the preferred size"))
	}

	for _, m := range c.Modules {
		if m.Name == "" || m.LabelA == "" || m.LabelB == "" {
			errs = append(errs, errors.New("modules require a name and two labels"))
		}
	}

	if c.Output.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Output.QuizFile == "" || c.Output.CheckpointFile == "" {
		errs = append(errs, errors.New("quiz and checkpoint file names are required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges CLI flag values into the configuration.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDir = dataDir
	}
	if target, ok := flags["target-per-label"].(int); ok && target > 0 {
		c.Harvest.TargetPerLabel = target
	}
	if attempts, ok := flags["max-retries"].(int); ok && attempts > 0 {
		c.Retry.MaxAttempts = attempts
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load builds the configuration from all sources.
// Precedence: CLI flags > environment variables > .env file > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".dermquiz.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
