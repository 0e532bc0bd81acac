package historical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sabarim/cryptodash/internal/config"
	"github.com/sabarim/cryptodash/internal/market"
)

// Saver appends fetched snapshots to per-day JSON files
type Saver struct {
	config *config.Config
	now    func() time.Time
}

// NewSaver creates a snapshot saver and ensures the data directory exists
func NewSaver(config *config.Config) (*Saver, error) {
	if err := os.MkdirAll(config.Storage.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Saver{
		config: config,
		now:    time.Now,
	}, nil
}

// RunOnce performs one fetch and one persist cycle. A failed fetch is logged
// and nothing is written.
func (s *Saver) RunOnce(ctx context.Context, fetcher market.Fetcher) (string, error) {
	api := s.config.API
	records, err := fetcher.FetchTop(ctx, api.Limit, api.Page, api.VsCurrency)
	if err != nil {
		slog.Error("Failed to fetch crypto data", slog.Any("error", err))
		return "", nil
	}

	return s.Save(records, s.now())
}

// Save stamps records with the collection time and appends them to the file
// for that calendar day. It returns the path written, or "" for empty input.
func (s *Saver) Save(records []market.Record, collectedAt time.Time) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	path := filepath.Join(s.config.Storage.DataDir, FileName(collectedAt))
	stamp := collectedAt.Format(time.RFC3339Nano)

	existing, err := s.readExisting(path)
	if err != nil {
		return "", err
	}

	// existing elements are carried over verbatim, including any that no
	// longer decode as records
	merged := make([]json.RawMessage, 0, len(existing)+len(records))
	merged = append(merged, existing...)
	for _, rec := range records {
		rec.CollectTimestamp = stamp
		raw, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
		}
		merged = append(merged, raw)
	}

	if err := writeJSONFile(path, merged); err != nil {
		slog.Error("Failed to save data", slog.String("path", path), slog.Any("error", err))
		return "", err
	}

	slog.Info("Data saved",
		slog.String("path", path),
		slog.Int("added", len(records)),
		slog.Int("total", len(merged)))
	return path, nil
}

// readExisting returns the elements already saved for the day. A file that
// is not a JSON array is moved aside so the new snapshot is not lost; other
// read errors are returned.
func (s *Saver) readExisting(path string) ([]json.RawMessage, error) {
	elements, err := readSnapshotElements(path)
	if err == nil {
		return elements, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if !errors.Is(err, errInvalidSnapshot) {
		return nil, fmt.Errorf("failed to read existing snapshot file: %w", err)
	}

	aside := path + ".corrupt"
	slog.Warn("Existing snapshot file is not valid JSON, moving it aside",
		slog.String("path", path), slog.String("moved_to", aside), slog.Any("error", err))
	if err := os.Rename(path, aside); err != nil {
		return nil, fmt.Errorf("failed to move invalid snapshot file: %w", err)
	}
	return nil, nil
}

func writeJSONFile(path string, elements []json.RawMessage) error {
	data, err := json.MarshalIndent(elements, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".crypto_data_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
