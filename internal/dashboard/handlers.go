package dashboard

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sabarim/cryptodash/internal/chart"
	"github.com/sabarim/cryptodash/internal/historical"
	"github.com/sabarim/cryptodash/internal/market"
)

const (
	defaultAssetName = "Bitcoin"
	fallbackImage    = "https://www.coingecko.com/favicon.ico"
)

// RankedAsset is one row of the market cap ranking
type RankedAsset struct {
	Rank         int      `json:"rank"`
	ID           string   `json:"id"`
	Image        string   `json:"image"`
	Crypto       string   `json:"crypto"`
	CurrentPrice string   `json:"current_price"`
	Change24h    *float64 `json:"change_24h"`
	Change24hFmt string   `json:"change_24h_fmt"`
	MarketCap    string   `json:"market_cap"`
}

// Characteristic is one row of the detail table
type Characteristic struct {
	Name  string `json:"characteristic"`
	Value string `json:"value"`
}

// ListAssets returns the assets with saved history and the default selection
func (s *Server) ListAssets(c *gin.Context) {
	assets := s.history().Assets()

	selected := ""
	for _, a := range assets {
		if a.Name == defaultAssetName {
			selected = a.ID
			break
		}
	}
	if selected == "" && len(assets) > 0 {
		selected = assets[0].ID
	}

	c.JSON(http.StatusOK, gin.H{"assets": assets, "selected": selected})
}

// ListWindows returns the selectable chart windows, All being the default
func (s *Server) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"windows": chart.Windows, "default": chart.WindowAll})
}

// TopAssets returns the top assets by market cap from the realtime snapshot
func (s *Server) TopAssets(c *gin.Context) {
	limit := s.config.Dashboard.TopN
	if q := c.Query("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	records := s.realtime(c.Request.Context())
	if len(records) < limit {
		limit = len(records)
	}

	rows := make([]RankedAsset, 0, limit)
	for i, rec := range records[:limit] {
		row := RankedAsset{
			Rank:         i + 1,
			ID:           rec.ID,
			Image:        imageOrFallback(rec.Image),
			Crypto:       orNA(rec.Name) + " (" + strings.ToUpper(orNA(rec.Symbol)) + ")",
			CurrentPrice: FormatValue(rec.CurrentPrice, "$ ", "", 2),
			Change24hFmt: FormatValue(rec.PriceChangePercentage24h, "", "%", 2),
			MarketCap:    FormatValue(rec.MarketCap, "$ ", "", 0),
		}
		if rec.PriceChangePercentage24h.Valid {
			v := rec.PriceChangePercentage24h.Value
			row.Change24h = &v
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{"assets": rows, "available": len(records) > 0})
}

// Indicators returns the 24h key indicators of one asset
func (s *Server) Indicators(c *gin.Context) {
	rec, ok := s.findRealtime(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            rec.ID,
		"name":          orNA(rec.Name),
		"symbol":        strings.ToUpper(orNA(rec.Symbol)),
		"image":         imageOrFallback(rec.Image),
		"current_price": FormatMetric(rec.CurrentPrice, "$ ", "", 4),
		"change_24h":    FormatMetric(rec.PriceChangePercentage24h, "", "%", 2),
		"total_volume":  FormatMetric(rec.TotalVolume, "$ ", "", 0),
		"market_cap":    FormatMetric(rec.MarketCap, "$ ", "", 0),
	})
}

// Details returns the detail table of one asset
func (s *Server) Details(c *gin.Context) {
	rec, ok := s.findRealtime(c)
	if !ok {
		return
	}

	rows := []Characteristic{
		{"Current Price", FormatValue(rec.CurrentPrice, "$ ", "", 4)},
		{"24h Change (%)", FormatValue(rec.PriceChangePercentage24h, "", "%", 2)},
		{"Market Cap", FormatValue(rec.MarketCap, "$ ", "", 0)},
		{"24h Volume", FormatValue(rec.TotalVolume, "$ ", "", 0)},
		{"Lowest Price (24h)", FormatValue(rec.Low24h, "$ ", "", 4)},
		{"Highest Price (24h)", FormatValue(rec.High24h, "$ ", "", 4)},
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "details": rows})
}

// Chart returns the price evolution chart of one asset for the requested window
func (s *Server) Chart(c *gin.Context) {
	window := chart.ParseWindow(c.DefaultQuery("window", string(chart.WindowAll)))
	c.JSON(http.StatusOK, chart.Build(s.history(), c.Param("id"), window))
}

// LatestSave reports the date of the newest saved snapshot file
func (s *Server) LatestSave(c *gin.Context) {
	date, ok := historical.LatestSaveDate(s.config.Storage.DataDir)
	c.JSON(http.StatusOK, gin.H{"available": ok, "latest_date": date})
}

// Refresh drops every cached table so the next request reloads them
func (s *Server) Refresh(c *gin.Context) {
	s.cache.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) findRealtime(c *gin.Context) (market.Record, bool) {
	id := c.Param("id")
	for _, rec := range s.realtime(c.Request.Context()) {
		if rec.ID == id {
			return rec, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no realtime data for " + id})
	return market.Record{}, false
}

func imageOrFallback(url string) string {
	if url == "" {
		return fallbackImage
	}
	return url
}
