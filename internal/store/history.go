package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/darkred07/shoe-tracker/internal/models"
)

// HistoryStore loads and persists the per-URL price history. Save rewrites
// the whole mapping; there is no partial merge.
type HistoryStore interface {
	Load(ctx context.Context) (models.PriceHistory, error)
	Save(ctx context.Context, history models.PriceHistory) error
}

// FileHistoryStore keeps price history in a pretty-printed JSON file.
type FileHistoryStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewFileHistoryStore(path string, logger *slog.Logger) *FileHistoryStore {
	return &FileHistoryStore{
		path:   path,
		logger: logger.With("component", "history_store"),
	}
}

// Load returns the stored history. A missing or unparsable file degrades to
// an empty history rather than an error.
func (s *FileHistoryStore) Load(_ context.Context) (models.PriceHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read history file, starting empty", "path", s.path, "error", err)
		}
		return models.PriceHistory{}, nil
	}

	var history models.PriceHistory
	if err := json.Unmarshal(data, &history); err != nil {
		s.logger.Warn("failed to parse history file, starting empty", "path", s.path, "error", err)
		return models.PriceHistory{}, nil
	}

	return history, nil
}

func (s *FileHistoryStore) Save(_ context.Context, history models.PriceHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}
