package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/sabarim/cryptodash/internal/chart"
	"github.com/sabarim/cryptodash/internal/historical"
	"github.com/sabarim/cryptodash/internal/market"
)

const (
	historySheet = "History"
	dailySheet   = "Daily"
)

var historyHeader = []any{
	"date", "id", "symbol", "name", "current_price", "market_cap", "total_volume",
	"price_change_percentage_24h", "market_cap_change_percentage_24h", "low_24h", "high_24h",
	"collect_timestamp",
}

var dailyHeader = []any{"id", "name", "date", "average_price"}

// WriteXLSX writes the raw history and its per-asset daily averages to a workbook
func WriteXLSX(history historical.History, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRow(f, historySheet, 1, historyHeader); err != nil {
		return err
	}
	for i, e := range history {
		row := []any{
			e.Date.Format("2006-01-02"), e.ID, e.Symbol, e.Name,
			cell(e.CurrentPrice), cell(e.MarketCap), cell(e.TotalVolume),
			cell(e.PriceChangePercentage24h), cell(e.MarketCapChangePercentage24h),
			cell(e.Low24h), cell(e.High24h), e.CollectTimestamp,
		}
		if err := writeRow(f, historySheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, dailySheet, 1, dailyHeader); err != nil {
		return err
	}
	next := 2
	for _, asset := range history.Assets() {
		for _, d := range chart.DailyAverages(history.ForAsset(asset.ID)) {
			row := []any{asset.ID, asset.Name, d.Date.Format("2006-01-02"), d.Price}
			if err := writeRow(f, dailySheet, next, row); err != nil {
				return err
			}
			next++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Wrote workbook", slog.String("path", path), slog.Int("rows", len(history)), slog.Int("daily_rows", next-2))
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	addr, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, addr, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cell leaves unset values blank
func cell(f market.Float) any {
	if !f.Valid {
		return nil
	}
	return f.Value
}
