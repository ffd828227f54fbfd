package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twflow/internal/config"
	"twflow/internal/gather/tw"
	"twflow/internal/store"
	"twflow/internal/util"
)

func main() {
	cfgPath := "config/twflow.yaml"
	if p := os.Getenv("TWFLOW_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	client := tw.NewClient(
		cfg.Sources.TWSEBaseURL,
		cfg.Sources.TPExBaseURL,
		cfg.Sources.UserAgent,
		cfg.Gather.MaxAttempts,
		cfg.Gather.RateLimitPerMin,
	)
	gatherer := tw.NewGatherer(client, cfg.Gather.Days, cfg.Gather.TopN, cfg.Gather.Lookback, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting daily gather", "days", cfg.Gather.Days, "topN", cfg.Gather.TopN)
	res, err := gatherer.Run(ctx)
	if err != nil {
		log.Fatalf("gather failed: %v", err)
	}

	// JSON documents for the dashboard.
	files := store.NewFileStore(cfg.Storage.DataDir)
	if err := files.WriteLatest(res.Payload); err != nil {
		log.Fatalf("writing snapshot: %v", err)
	}
	logger.Info("snapshot written", "path", files.LatestPath())

	// SQLite run archive.
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()
	if err := db.SaveRun(ctx, res.Payload); err != nil {
		log.Fatalf("archiving run: %v", err)
	}

	// Parquet archive of the full per-day lists.
	pq := store.NewParquetStore(cfg.Storage.DataDir)
	for _, top := range res.Tops {
		records := make([]store.TopRecord, len(top.Entries))
		for i, e := range top.Entries {
			records[i] = store.TopRecord{
				Date:       top.Date,
				Position:   int32(i + 1),
				StockID:    e.StockID,
				StockName:  e.StockName,
				BuyLots:    e.BuyLots,
				SellLots:   e.SellLots,
				NetBuyLots: e.NetBuyLots,
			}
		}
		if err := pq.WriteDailyTop(top.Date, records); err != nil {
			log.Fatalf("archiving top list %s: %v", top.Date, err)
		}
	}

	// CSV export, stamped in exchange-local time.
	taipei := time.FixedZone("Asia/Taipei", 8*60*60)
	csvPath, err := store.ExportCSV(cfg.Storage.ExportDir, res.Payload, time.Now().In(taipei))
	if err != nil {
		log.Fatalf("exporting CSV: %v", err)
	}
	logger.Info("gather complete",
		"intersection", res.Payload.Count,
		"csv", csvPath)
}
