package historical

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sabarim/cryptodash/internal/market"
)

var snapshotFileRe = regexp.MustCompile(`^crypto_data_(.+)\.json$`)

// Accepted collect_timestamp layouts. Layouts without an offset are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	dateLayout,
}

// LoadHistorical reads every daily snapshot file in dir into one table.
// A missing directory yields an empty table. Unreadable or malformed files are
// skipped and logged; records without a usable date or price are dropped.
func LoadHistorical(dir string) (History, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return History{}, nil
		}
		return History{}, fmt.Errorf("failed to read data directory: %w", err)
	}

	// os.ReadDir already returns entries sorted by filename
	var all History
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := snapshotFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		records, err := readSnapshotFile(path)
		if err != nil {
			slog.Error("Error loading snapshot file, skipping", slog.String("file", path), slog.Any("error", err))
			continue
		}
		if len(records) == 0 {
			slog.Warn("Snapshot file contains no data", slog.String("file", entry.Name()))
			continue
		}

		for _, rec := range records {
			date, ok := recordDate(rec, m[1])
			if !ok {
				slog.Warn("Dropping record without a usable date",
					slog.String("file", entry.Name()), slog.String("id", rec.ID))
				continue
			}
			all = append(all, Entry{Record: rec, Date: date})
		}
	}

	history := make(History, 0, len(all))
	for _, e := range all {
		if !e.CurrentPrice.Valid || e.Date.IsZero() {
			continue
		}
		history = append(history, e)
	}

	sort.SliceStable(history, func(i, j int) bool {
		if !history[i].Date.Equal(history[j].Date) {
			return history[i].Date.Before(history[j].Date)
		}
		return history[i].Name < history[j].Name
	})

	slog.Debug("Loaded historical data", slog.String("dir", dir), slog.Int("count", len(history)))
	return history, nil
}

// LatestSaveDate returns the date suffix of the newest snapshot file in dir
func LatestSaveDate(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	latest := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if m := snapshotFileRe.FindStringSubmatch(entry.Name()); m != nil && m[1] > latest {
			latest = m[1]
		}
	}
	return latest, latest != ""
}

// FileName returns the snapshot file name for the calendar day of t
func FileName(t time.Time) string {
	return filePrefix + t.Format(dateLayout) + fileSuffix
}

// errInvalidSnapshot marks a snapshot file whose content is not a JSON array
var errInvalidSnapshot = errors.New("invalid snapshot JSON")

// readSnapshotElements splits a snapshot file into its raw array elements
func readSnapshotElements(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSnapshot, err)
	}
	return elements, nil
}

// readSnapshotFile decodes each element on its own; elements that are not
// record objects are logged and skipped
func readSnapshotFile(path string) ([]market.Record, error) {
	elements, err := readSnapshotElements(path)
	if err != nil {
		return nil, err
	}

	records := make([]market.Record, 0, len(elements))
	for i, raw := range elements {
		var rec market.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			slog.Warn("Skipping undecodable record",
				slog.String("file", filepath.Base(path)), slog.Int("index", i), slog.Any("error", err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// recordDate prefers the record's own timestamp and falls back to the date in
// the file name
func recordDate(rec market.Record, fileDate string) (time.Time, bool) {
	if t, ok := parseTimestamp(rec.CollectTimestamp); ok {
		return Day(t), true
	}
	if t, err := time.Parse(dateLayout, fileDate); err == nil {
		return Day(t), true
	}
	return time.Time{}, false
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Day truncates t to midnight UTC of its calendar day in t's own offset
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
