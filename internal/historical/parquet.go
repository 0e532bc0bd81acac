package historical

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sabarim/cryptodash/internal/market"
)

// ExportParquet writes the history table to one parquet file per month and
// returns the files written
func ExportParquet(history History, dir string) ([]string, error) {
	if len(history) == 0 {
		slog.Info("No history to export")
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parquet directory: %w", err)
	}

	// Group entries by month to create separate files
	byMonth := make(map[string]History)
	for _, e := range history {
		month := e.Date.Format("2006-01")
		byMonth[month] = append(byMonth[month], e)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	files := make([]string, 0, len(months))
	for _, month := range months {
		filename := filepath.Join(dir, fmt.Sprintf("crypto_history_%s.parquet", month))
		if err := writeEntries(filename, byMonth[month]); err != nil {
			return files, fmt.Errorf("failed to write parquet file: %w", err)
		}
		files = append(files, filename)
	}
	return files, nil
}

func writeEntries(filename string, entries History) error {
	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(HistoricalDataPoint), 4)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_GZIP
	pw.PageSize = 8 * 1024

	for _, e := range entries {
		if err := pw.Write(toDataPoint(e)); err != nil {
			return fmt.Errorf("failed to write parquet data: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Info("Wrote parquet file", slog.String("path", filename), slog.Int("count", len(entries)))
	return nil
}

// readDataPoints reads back a file written by ExportParquet
func readDataPoints(filename string) ([]HistoricalDataPoint, error) {
	fr, err := local.NewLocalFileReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(HistoricalDataPoint), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	points := make([]HistoricalDataPoint, pr.GetNumRows())
	if err := pr.Read(&points); err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	return points, nil
}

func toDataPoint(e Entry) HistoricalDataPoint {
	return HistoricalDataPoint{
		ID:                           e.ID,
		Symbol:                       e.Symbol,
		Name:                         e.Name,
		Date:                         e.Date.Format(dateLayout),
		Year:                         int32(e.Date.Year()),
		Month:                        int32(e.Date.Month()),
		Day:                          int32(e.Date.Day()),
		CollectTimestamp:             e.CollectTimestamp,
		CurrentPrice:                 e.CurrentPrice.Value,
		MarketCap:                    optional(e.MarketCap),
		TotalVolume:                  optional(e.TotalVolume),
		PriceChangePercentage24h:     optional(e.PriceChangePercentage24h),
		MarketCapChangePercentage24h: optional(e.MarketCapChangePercentage24h),
		Low24h:                       optional(e.Low24h),
		High24h:                      optional(e.High24h),
	}
}

func optional(f market.Float) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}
