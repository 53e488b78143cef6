package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// ConfigStore reads and writes the tracked URLs file.
type ConfigStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewConfigStore(path string, logger *slog.Logger) *ConfigStore {
	return &ConfigStore{
		path:   path,
		logger: logger.With("component", "config_store"),
	}
}

// Load returns the tracker configuration. A missing file is created with the
// defaults. The legacy format, a bare array of listings, is wrapped in the
// current object format and persisted. An unreadable or invalid file yields
// the in-memory defaults without touching what is on disk.
func (s *ConfigStore) Load() (models.TrackerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Warn("config file not found, creating default", "path", s.path)
		cfg := models.DefaultTrackerConfig()
		if err := s.write(cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}
	if err != nil {
		s.logger.Error("failed to read config file, using defaults", "path", s.path, "error", err)
		return models.DefaultTrackerConfig(), nil
	}

	if isLegacyArray(data) {
		var urls []models.TrackedListing
		if err := json.Unmarshal(data, &urls); err != nil {
			s.logger.Error("failed to parse legacy config, using defaults", "path", s.path, "error", err)
			return models.DefaultTrackerConfig(), nil
		}

		s.logger.Warn("migrating legacy config format", "path", s.path, "listings", len(urls))
		cfg := models.DefaultTrackerConfig()
		cfg.URLs = urls
		if err := s.write(cfg); err != nil {
			return cfg, fmt.Errorf("persist migrated config: %w", err)
		}
		return cfg, nil
	}

	var cfg models.TrackerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.logger.Error("failed to parse config file, using defaults", "path", s.path, "error", err)
		return models.DefaultTrackerConfig(), nil
	}

	if cfg.Settings.Model == "" {
		cfg.Settings.Model = models.DefaultModel
	}
	if cfg.Settings.Threshold == 0 {
		cfg.Settings.Threshold = models.DefaultThreshold
	}

	return cfg, nil
}

// Save overwrites the config file with cfg, pretty-printed.
func (s *ConfigStore) Save(cfg models.TrackerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(cfg)
}

func (s *ConfigStore) write(cfg models.TrackerConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func isLegacyArray(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "[")
}
