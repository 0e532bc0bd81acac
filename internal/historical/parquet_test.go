package historical

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sabarim/cryptodash/internal/market"
)

func TestExportParquet_OneFilePerMonth(t *testing.T) {
	dir := t.TempDir()
	h := History{
		{Record: market.Record{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: market.NewFloat(100), MarketCap: market.NewFloat(5e11)},
			Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)},
		{Record: market.Record{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: market.NewFloat(110)},
			Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Record: market.Record{ID: "ethereum", Name: "Ethereum", CurrentPrice: market.NewFloat(10)},
			Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}

	files, err := ExportParquet(h, dir)
	if err != nil {
		t.Fatalf("ExportParquet failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "crypto_history_2024-02.parquet"),
		filepath.Join(dir, "crypto_history_2024-03.parquet"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("unexpected files %v", files)
	}

	points, err := readDataPoints(files[1])
	if err != nil {
		t.Fatalf("readDataPoints failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 rows in March, got %d", len(points))
	}
	if points[0].ID != "bitcoin" || points[0].Date != "2024-03-01" || points[0].CurrentPrice != 110 {
		t.Errorf("unexpected first row %+v", points[0])
	}
	if points[0].MarketCap != nil {
		t.Errorf("Expected unset market cap to stay null")
	}

	feb, err := readDataPoints(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(feb) != 1 || feb[0].MarketCap == nil || *feb[0].MarketCap != 5e11 {
		t.Errorf("unexpected February rows %+v", feb)
	}
}

func TestExportParquet_EmptyHistory(t *testing.T) {
	files, err := ExportParquet(nil, t.TempDir())
	if err != nil || len(files) != 0 {
		t.Errorf("Expected nothing exported, got %v, %v", files, err)
	}
}
