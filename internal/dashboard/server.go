package dashboard

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sabarim/cryptodash/internal/cache"
	"github.com/sabarim/cryptodash/internal/config"
	"github.com/sabarim/cryptodash/internal/historical"
	"github.com/sabarim/cryptodash/internal/market"
)

//go:embed web/index.html
var indexHTML []byte

const (
	realtimeCacheKey   = "realtime"
	historicalCacheKey = "historical"
)

// Server serves the dashboard page and its JSON API
type Server struct {
	config  *config.Config
	fetcher market.Fetcher
	loader  func(dir string) (historical.History, error)
	cache   *cache.Store
	router  *gin.Engine
}

// NewServer wires the dashboard routes
func NewServer(cfg *config.Config, fetcher market.Fetcher) *Server {
	s := &Server{
		config:  cfg,
		fetcher: fetcher,
		loader:  historical.LoadHistorical,
		cache:   cache.NewStore(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/assets", s.ListAssets)
		api.GET("/top", s.TopAssets)
		api.GET("/windows", s.ListWindows)
		api.GET("/assets/:id/indicators", s.Indicators)
		api.GET("/assets/:id/chart", s.Chart)
		api.GET("/assets/:id/details", s.Details)
		api.GET("/history/latest", s.LatestSave)
		api.POST("/refresh", s.Refresh)
	}

	s.router = r
	return s
}

// Handler exposes the router for tests and custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Dashboard.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Dashboard listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("Shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

// realtime returns the cached top assets, or nil when the API is unavailable
func (s *Server) realtime(ctx context.Context) []market.Record {
	ttl := time.Duration(s.config.Dashboard.RealtimeTTLSeconds) * time.Second
	records, err := cache.Get(s.cache, realtimeCacheKey, ttl, func() ([]market.Record, error) {
		api := s.config.API
		return s.fetcher.FetchTop(ctx, api.Limit, api.Page, api.VsCurrency)
	})
	if err != nil {
		slog.Error("Failed to fetch realtime data", slog.Any("error", err))
		return nil
	}
	return records
}

// history returns the cached consolidated history, or an empty table
func (s *Server) history() historical.History {
	ttl := time.Duration(s.config.Dashboard.HistoricalTTLSeconds) * time.Second
	h, err := cache.Get(s.cache, historicalCacheKey, ttl, func() (historical.History, error) {
		return s.loader(s.config.Storage.DataDir)
	})
	if err != nil {
		slog.Error("Failed to load historical data", slog.Any("error", err))
		return historical.History{}
	}
	return h
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	}
}
