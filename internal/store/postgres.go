package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darkred07/shoe-tracker/internal/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS price_history (
	url         TEXT             NOT NULL,
	price       DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS price_history_url_idx ON price_history (url, recorded_at);
`

// PostgresHistoryStore keeps price history in Postgres. It honors the same
// contract as the file store: Save replaces the whole mapping, Load returns
// at most MaxHistoryEntries per URL, oldest first.
type PostgresHistoryStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresHistoryStore(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresHistoryStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, historySchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &PostgresHistoryStore{
		pool:   pool,
		logger: logger.With("component", "history_store_pg"),
	}, nil
}

func (s *PostgresHistoryStore) Close() {
	s.pool.Close()
}

func (s *PostgresHistoryStore) Load(ctx context.Context) (models.PriceHistory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT url, price, recorded_at FROM price_history ORDER BY url, recorded_at`)
	if err != nil {
		s.logger.Warn("failed to query history, starting empty", "error", err)
		return models.PriceHistory{}, nil
	}
	defer rows.Close()

	history := models.PriceHistory{}
	for rows.Next() {
		var (
			url        string
			price      float64
			recordedAt time.Time
		)
		if err := rows.Scan(&url, &price, &recordedAt); err != nil {
			s.logger.Warn("failed to scan history row, starting empty", "error", err)
			return models.PriceHistory{}, nil
		}
		history.Append(url, models.PriceHistoryEntry{
			Price:     price,
			Timestamp: recordedAt.Format(time.RFC3339),
		})
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("failed to read history rows, starting empty", "error", err)
		return models.PriceHistory{}, nil
	}

	return history, nil
}

func (s *PostgresHistoryStore) Save(ctx context.Context, history models.PriceHistory) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM price_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	batch := &pgx.Batch{}
	for url, entries := range history {
		for _, entry := range entries {
			recordedAt, err := time.Parse(time.RFC3339, entry.Timestamp)
			if err != nil {
				s.logger.Warn("skipping entry with bad timestamp", "url", url, "timestamp", entry.Timestamp)
				continue
			}
			batch.Queue(
				`INSERT INTO price_history (url, price, recorded_at) VALUES ($1, $2, $3)`,
				url, entry.Price, recordedAt)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
