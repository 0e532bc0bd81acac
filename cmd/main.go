package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sabarim/cryptodash/internal/chart"
	"github.com/sabarim/cryptodash/internal/config"
	"github.com/sabarim/cryptodash/internal/dashboard"
	"github.com/sabarim/cryptodash/internal/export"
	"github.com/sabarim/cryptodash/internal/historical"
	"github.com/sabarim/cryptodash/internal/market"
)

var (
	configFile   string
	dataDir      string
	verbose      bool
	limit        int
	vsCurrency   string
	addr         string
	assetID      string
	windowName   string
	exportFormat string
	outputPath   string
)

var versionString = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "cryptodash",
		Short:         "Save daily crypto market snapshots and chart their history",
		Long:          `cryptodash fetches the top cryptocurrencies from CoinGecko, keeps one JSON snapshot file per day and serves a dashboard with price history and moving averages.`,
		Version:       versionString,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding crypto_data_YYYY-MM-DD.json files")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Fetch the current top assets and append them to today's snapshot file",
		RunE:  runSave,
	}
	saveCmd.Flags().IntVar(&limit, "limit", 0, "Number of assets to fetch")
	saveCmd.Flags().StringVar(&vsCurrency, "currency", "", "Quote currency (default usd)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8501)")

	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the price evolution chart of an asset as JSON",
		RunE:  runChart,
	}
	chartCmd.Flags().StringVar(&assetID, "id", "bitcoin", "Asset identifier")
	chartCmd.Flags().StringVar(&windowName, "window", string(chart.WindowAll), "Time window: 7d, 1m, 1y or All")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the consolidated history to parquet or xlsx",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "parquet", "Export format: parquet or xlsx")
	exportCmd.Flags().StringVar(&outputPath, "output", "", "Output directory (parquet) or file (xlsx)")

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the date of the latest saved snapshot",
		RunE:  runLatest,
	}

	rootCmd.AddCommand(saveCmd, serveCmd, chartCmd, exportCmd, latestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads .env, the config file and the environment, then applies
// command-line overrides
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("error loading configuration: %w", err)
	}

	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if limit > 0 {
		cfg.API.Limit = limit
	}
	if vsCurrency != "" {
		cfg.API.VsCurrency = vsCurrency
	}
	if addr != "" {
		cfg.Dashboard.Addr = addr
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadHistory treats an unreadable data directory as no data
func loadHistory(dir string) historical.History {
	h, err := historical.LoadHistorical(dir)
	if err != nil {
		slog.Error("Failed to load historical data", slog.String("dir", dir), slog.Any("error", err))
	}
	return h
}

func runSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	saver, err := historical.NewSaver(&cfg)
	if err != nil {
		slog.Error("Failed to initialize saver", slog.Any("error", err))
		return nil
	}

	// Failures are reported through the log only
	if _, err := saver.RunOnce(ctx, market.NewClient(&cfg)); err != nil {
		slog.Error("Failed to save snapshot", slog.Any("error", err))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	server := dashboard.NewServer(&cfg, market.NewClient(&cfg))
	return server.Run(ctx)
}

func runChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec := chart.Build(loadHistory(cfg.Storage.DataDir), assetID, chart.ParseWindow(windowName))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(spec)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	history := loadHistory(cfg.Storage.DataDir)
	if len(history) == 0 {
		slog.Warn("No historical data to export", slog.String("dir", cfg.Storage.DataDir))
		return nil
	}

	switch exportFormat {
	case "parquet":
		dir := cfg.Storage.ParquetDir
		if outputPath != "" {
			dir = outputPath
		}
		files, err := historical.ExportParquet(history, dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
	case "xlsx":
		path := cfg.Storage.XLSXPath
		if outputPath != "" {
			path = outputPath
		}
		if err := export.WriteXLSX(history, path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	default:
		return fmt.Errorf("invalid export format: %s", exportFormat)
	}
	return nil
}

func runLatest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date, ok := historical.LatestSaveDate(cfg.Storage.DataDir)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No historical saves found.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Latest saved historical data: %s\n", date)
	return nil
}
