package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angel88c/rolling-forecast-sub000/config"
	"github.com/angel88c/rolling-forecast-sub000/internal/adapters/history"
	"github.com/angel88c/rolling-forecast-sub000/internal/adapters/ingest"
	"github.com/angel88c/rolling-forecast-sub000/internal/adapters/notify"
	"github.com/angel88c/rolling-forecast-sub000/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	file := flag.String("file", "", "funnel workbook to process (.xlsx)")
	sheet := flag.String("sheet", "", "sheet name (default: first sheet)")
	db := flag.String("db", "", "client history database path (overrides config)")
	table := flag.Bool("table", false, "render the full monthly pivot and cost-of-sale tables")
	verbose := flag.Bool("verbose", false, "set log level to debug and print per-event detail")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	noStore := flag.Bool("no-store", false, "skip the client history database entirely")
	flag.Parse()

	if *file == "" {
		slog.Error("no input file: use -file funnel.xlsx")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *db != "" {
		cfg.Storage.DSN = *db
	}
	if *sheet != "" {
		cfg.Input.Sheet = *sheet
	}
	setupLogger(cfg.Log)

	slog.Info("forecast starting",
		"config", *configPath,
		"file", *file,
		"sheet", cfg.Input.Sheet,
		"db", cfg.Storage.DSN,
	)

	source := ingest.New(cfg.Input.Sheet, cfg.Input.MaxHeaderScan, cfg.Input.MaxFileSizeMB)
	reporter := notify.NewConsole(*table, *verbose)

	var store *history.SQLiteStore
	if !*noStore {
		store, err = history.NewSQLiteStore(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open client history", "err", err, "path", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	p := newPipeline(cfg, source, store, reporter)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := p.RunFile(ctx, *file)
	if err != nil {
		slog.Error("forecast failed", "err", err)
		os.Exit(1)
	}

	slog.Info("forecast complete",
		"run_id", result.RunID,
		"opportunities", len(result.Opportunities),
		"events", len(result.Events),
		"total_adjusted", result.Summary.TotalAdjusted,
	)
}

// newPipeline arma el pipeline evitando la interfaz-nil-con-puntero-nil
// cuando se corre sin store.
func newPipeline(cfg *config.Config, source *ingest.Ingestor, store *history.SQLiteStore, reporter *notify.Console) *pipeline.Pipeline {
	if store == nil {
		return pipeline.New(cfg.BusinessRules(), source, nil, reporter)
	}
	return pipeline.New(cfg.BusinessRules(), source, store, reporter)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
