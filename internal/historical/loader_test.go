package historical

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadHistorical_MissingOrEmptyDirectory(t *testing.T) {
	h, err := LoadHistorical(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Expected no error for missing dir, got %v", err)
	}
	if h == nil || len(h) != 0 {
		t.Errorf("Expected empty non-nil table, got %v", h)
	}

	h, err = LoadHistorical(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error for empty dir, got %v", err)
	}
	if len(h) != 0 {
		t.Errorf("Expected empty table, got %d rows", len(h))
	}
}

func TestLoadHistorical_DateFromTimestampIgnoresTimeOfDay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crypto_data_2024-03-01.json", `[
		{"id":"bitcoin","name":"Bitcoin","current_price":100,"collect_timestamp":"2024-03-01T00:00:01"},
		{"id":"bitcoin","name":"Bitcoin","current_price":110,"collect_timestamp":"2024-03-01T23:59:59.999999"},
		{"id":"bitcoin","name":"Bitcoin","current_price":120,"collect_timestamp":"2024-03-02T08:15:00+02:00"},
		{"id":"bitcoin","name":"Bitcoin","current_price":130,"collect_timestamp":"2024-03-02 18:00:00"}
	]`)

	h, err := LoadHistorical(dir)
	if err != nil {
		t.Fatalf("LoadHistorical failed: %v", err)
	}
	if len(h) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(h))
	}

	want := []string{"2024-03-01", "2024-03-01", "2024-03-02", "2024-03-02"}
	for i, e := range h {
		if got := e.Date.Format("2006-01-02"); got != want[i] {
			t.Errorf("row %d: date %s, want %s", i, got, want[i])
		}
		if e.Date.Hour() != 0 || e.Date.Minute() != 0 || e.Date.Second() != 0 || e.Date.Nanosecond() != 0 {
			t.Errorf("row %d: time of day not discarded: %v", i, e.Date)
		}
	}
}

func TestLoadHistorical_FallsBackToFileDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crypto_data_2024-03-01.json", `[
		{"id":"bitcoin","name":"Bitcoin","current_price":100,"collect_timestamp":"not-a-date"},
		{"id":"ethereum","name":"Ethereum","current_price":10}
	]`)
	writeFile(t, dir, "crypto_data_bad-name.json", `[
		{"id":"solana","name":"Solana","current_price":5,"collect_timestamp":"garbage"}
	]`)

	h, err := LoadHistorical(dir)
	if err != nil {
		t.Fatalf("LoadHistorical failed: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("Expected 2 rows (solana dropped), got %d", len(h))
	}
	for _, e := range h {
		if e.Date.Format("2006-01-02") != "2024-03-01" {
			t.Errorf("%s: expected file date 2024-03-01, got %v", e.ID, e.Date)
		}
		if e.ID == "solana" {
			t.Errorf("record without any usable date must be dropped")
		}
	}
}

func TestLoadHistorical_SkipsBadFilesAndRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crypto_data_2024-03-01.json", `[
		{"id":"bitcoin","name":"Bitcoin","current_price":"100.5","collect_timestamp":"2024-03-01T10:00:00"},
		{"id":"ethereum","name":"Ethereum","current_price":"n/a","collect_timestamp":"2024-03-01T10:00:00"},
		{"id":"tether","name":"Tether","current_price":null,"collect_timestamp":"2024-03-01T10:00:00"},
		{"id":"solana","name":"Solana","collect_timestamp":"2024-03-01T10:00:00"}
	]`)
	writeFile(t, dir, "crypto_data_2024-03-02.json", `{broken`)
	writeFile(t, dir, "crypto_data_2024-03-03.json", `[]`)
	writeFile(t, dir, "crypto_data_2024-03-04.json", ``)
	writeFile(t, dir, "crypto_data_2024-03-05.json", `[{"id":"bitcoin","name":"Bitcoin","current_price":200,"collect_timestamp":"2024-03-05T10:00:00"}]`)
	writeFile(t, dir, "notes.json", `[{"id":"bitcoin","current_price":1}]`)
	if err := os.Mkdir(filepath.Join(dir, "crypto_data_2024-03-06.json"), 0755); err != nil {
		t.Fatal(err)
	}

	h, err := LoadHistorical(dir)
	if err != nil {
		t.Fatalf("LoadHistorical failed: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %+v", len(h), h)
	}
	if h[0].CurrentPrice.Value != 100.5 || h[1].CurrentPrice.Value != 200 {
		t.Errorf("unexpected prices %v, %v", h[0].CurrentPrice, h[1].CurrentPrice)
	}
}

func TestLoadHistorical_OddRecordDoesNotSkipFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crypto_data_2024-03-01.json", `[
		{"id":"bitcoin","name":"Bitcoin","current_price":100,"collect_timestamp":"2024-03-01T10:00:00"},
		{"id":"ethereum","name":"Ethereum","current_price":10,"collect_timestamp":1709287200},
		"not a record",
		{"id":"solana","name":"Solana","current_price":5,"collect_timestamp":"2024-03-01T10:00:00"}
	]`)

	h, err := LoadHistorical(dir)
	if err != nil {
		t.Fatalf("LoadHistorical failed: %v", err)
	}
	if len(h) != 3 {
		t.Fatalf("Expected 3 rows, got %d: %+v", len(h), h)
	}

	eth := h.ForAsset("ethereum")
	if len(eth) != 1 {
		t.Fatalf("Expected the ethereum row to be kept, got %d", len(eth))
	}
	if eth[0].CollectTimestamp != "" || eth[0].Date.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("Expected file date fallback, got %q %v", eth[0].CollectTimestamp, eth[0].Date)
	}
}

func TestLoadHistorical_SortedByDateThenNameKeepingEveryFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "crypto_data_2024-03-02.json", `[
		{"id":"ethereum","name":"Ethereum","current_price":20,"collect_timestamp":"2024-03-02T09:00:00"},
		{"id":"bitcoin","name":"Bitcoin","current_price":200,"collect_timestamp":"2024-03-02T09:00:00"},
		{"id":"bitcoin","name":"Bitcoin","current_price":210,"collect_timestamp":"2024-03-02T21:00:00"}
	]`)
	writeFile(t, dir, "crypto_data_2024-03-01.json", `[
		{"id":"bitcoin","name":"Bitcoin","current_price":100,"collect_timestamp":"2024-03-01T09:00:00"}
	]`)

	h, err := LoadHistorical(dir)
	if err != nil {
		t.Fatalf("LoadHistorical failed: %v", err)
	}

	want := []struct {
		date  string
		name  string
		price float64
	}{
		{"2024-03-01", "Bitcoin", 100},
		{"2024-03-02", "Bitcoin", 200},
		{"2024-03-02", "Bitcoin", 210},
		{"2024-03-02", "Ethereum", 20},
	}
	if len(h) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(h))
	}
	for i, w := range want {
		if h[i].Date.Format("2006-01-02") != w.date || h[i].Name != w.name || h[i].CurrentPrice.Value != w.price {
			t.Errorf("row %d: got %s %s %v, want %+v", i, h[i].Date.Format("2006-01-02"), h[i].Name, h[i].CurrentPrice.Value, w)
		}
	}

	assets := h.Assets()
	if len(assets) != 2 || assets[0].Name != "Bitcoin" || assets[1].ID != "ethereum" {
		t.Errorf("unexpected assets %+v", assets)
	}
	if got := len(h.ForAsset("bitcoin")); got != 3 {
		t.Errorf("Expected 3 bitcoin rows, got %d", got)
	}
	latest, ok := h.LatestDate()
	if !ok || !latest.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected latest date %v", latest)
	}
}

func TestLatestSaveDate(t *testing.T) {
	dir := t.TempDir()
	if _, ok := LatestSaveDate(dir); ok {
		t.Error("Expected no latest date in empty dir")
	}

	writeFile(t, dir, "crypto_data_2024-03-01.json", `[]`)
	writeFile(t, dir, "crypto_data_2024-03-09.json", `[]`)
	writeFile(t, dir, "other.json", `[]`)

	got, ok := LatestSaveDate(dir)
	if !ok || got != "2024-03-09" {
		t.Errorf("Expected 2024-03-09, got %q", got)
	}
}
