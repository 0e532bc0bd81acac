package historical

import (
	"sort"
	"time"

	"github.com/sabarim/cryptodash/internal/market"
)

const (
	filePrefix = "crypto_data_"
	fileSuffix = ".json"
	dateLayout = "2006-01-02"
)

// Entry is one snapshot record with the calendar day it belongs to
type Entry struct {
	market.Record
	Date time.Time
}

// History is the consolidated table of all saved snapshot records,
// one entry per fetch event, sorted by date then name
type History []Entry

// Asset pairs a display name with its identifier
type Asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ForAsset returns the entries of a single asset, preserving order
func (h History) ForAsset(id string) History {
	var out History
	for _, e := range h {
		if e.ID == id {
			out = append(out, e)
		}
	}
	return out
}

// Assets returns the distinct assets in the table sorted by name
func (h History) Assets() []Asset {
	seen := make(map[string]string)
	for _, e := range h {
		if _, ok := seen[e.Name]; !ok {
			seen[e.Name] = e.ID
		}
	}

	assets := make([]Asset, 0, len(seen))
	for name, id := range seen {
		assets = append(assets, Asset{ID: id, Name: name})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets
}

// LatestDate returns the most recent calendar day in the table
func (h History) LatestDate() (time.Time, bool) {
	var latest time.Time
	for _, e := range h {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest, !latest.IsZero()
}

// HistoricalDataPoint is a flattened history row for parquet export
type HistoricalDataPoint struct {
	ID                           string   `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Symbol                       string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Name                         string   `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Date                         string   `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Year                         int32    `parquet:"name=year, type=INT32, encoding=PLAIN_DICTIONARY"`
	Month                        int32    `parquet:"name=month, type=INT32, encoding=PLAIN_DICTIONARY"`
	Day                          int32    `parquet:"name=day, type=INT32, encoding=PLAIN_DICTIONARY"`
	CollectTimestamp             string   `parquet:"name=collect_timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	CurrentPrice                 float64  `parquet:"name=current_price, type=DOUBLE, encoding=PLAIN"`
	MarketCap                    *float64 `parquet:"name=market_cap, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalVolume                  *float64 `parquet:"name=total_volume, type=DOUBLE, repetitiontype=OPTIONAL"`
	PriceChangePercentage24h     *float64 `parquet:"name=price_change_percentage_24h, type=DOUBLE, repetitiontype=OPTIONAL"`
	MarketCapChangePercentage24h *float64 `parquet:"name=market_cap_change_percentage_24h, type=DOUBLE, repetitiontype=OPTIONAL"`
	Low24h                       *float64 `parquet:"name=low_24h, type=DOUBLE, repetitiontype=OPTIONAL"`
	High24h                      *float64 `parquet:"name=high_24h, type=DOUBLE, repetitiontype=OPTIONAL"`
}
