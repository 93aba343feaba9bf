package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the core consumes. Front-ends load it and pass
// it in; the core never parses flags or files itself.
type Config struct {
	EditedSuffix      string        `yaml:"edited_suffix"`
	ExifExtensions    []string      `yaml:"exif_extensions"`
	MatchedMediaDir   string        `yaml:"matched_media_dir"`
	EditedRawDir      string        `yaml:"edited_raw_dir"`
	LogsDir           string        `yaml:"logs_dir"`
	ErrorLogPattern   string        `yaml:"error_log_pattern"`
	MissingLogPattern string        `yaml:"missing_log_pattern"`
	BackupDir         string        `yaml:"backup_dir"`
	TemplatesDir      string        `yaml:"templates_dir"`
	MaxStemLength     int           `yaml:"max_stem_length"`
	MoveRetries       int           `yaml:"move_retries"`
	MoveRetryDelay    time.Duration `yaml:"move_retry_delay"`
}

// DefaultMaxStemLength is where the export tool cuts long file stems
const DefaultMaxStemLength = 47

// DefaultConfig returns the settings used when no config file exists
func DefaultConfig() *Config {
	return &Config{
		EditedSuffix:      "edited",
		ExifExtensions:    []string{"tif", "tiff", "jpeg", "jpg"},
		MatchedMediaDir:   "MatchedMedia",
		EditedRawDir:      "EditedRaw",
		LogsDir:           "logs",
		ErrorLogPattern:   "errors_{timestamp}.log",
		MissingLogPattern: "missing_files_{timestamp}.log",
		BackupDir:         "metadata_backups",
		TemplatesDir:      defaultTemplatesDir(),
		MaxStemLength:     DefaultMaxStemLength,
		MoveRetries:       3,
		MoveRetryDelay:    time.Second,
	}
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".photometa-restore.yaml"
	}
	return filepath.Join(home, ".photometa-restore.yaml")
}

func defaultTemplatesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".photometa_restore", "templates")
	}
	return filepath.Join(home, ".photometa_restore", "templates")
}

// LoadConfig overlays the YAML file at path on the defaults.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) validate() error {
	if c.MaxStemLength < 1 {
		return fmt.Errorf("max_stem_length must be positive, got %d", c.MaxStemLength)
	}
	if c.MoveRetries < 1 {
		return fmt.Errorf("move_retries must be at least 1, got %d", c.MoveRetries)
	}
	for _, name := range []string{c.MatchedMediaDir, c.EditedRawDir, c.LogsDir, c.BackupDir} {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("output directory names must be plain names, got %q", name)
		}
	}
	return nil
}

// withEditedSuffix returns a copy of c using suffix, when one is given
func (c *Config) withEditedSuffix(suffix string) *Config {
	if suffix == "" {
		return c
	}
	cp := *c
	cp.EditedSuffix = suffix
	return &cp
}

// exifSupported reports whether embedded metadata is handled for ext
// (with or without the leading dot, any case)
func (c *Config) exifSupported(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.ExifExtensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
