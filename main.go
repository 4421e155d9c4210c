package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"path/filepath"

	"btcspot/config"
	"btcspot/internal/adapters/coingecko"
	"btcspot/internal/adapters/logger"
	"btcspot/internal/adapters/sqlite"
	"btcspot/internal/app"
	"btcspot/internal/loader"
	"btcspot/internal/ports"
	"btcspot/internal/publish"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Price Source (CoinGecko Adapter)
	source, err := coingecko.New(coingecko.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		ProBaseURL: cfg.ProBaseURL,
		CoinID:     cfg.CoinID,
		VsCurrency: cfg.VsCurrency,
		Timeout:    cfg.HTTPTimeout,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize CoinGecko client")
		log.Fatalf("FATAL: Failed to initialize CoinGecko client: %v", err)
	}

	// 4. Initialize History Loader (remote copy -> local file -> empty)
	localLatest := filepath.Join(cfg.OutputDir, publish.LatestFilename)
	histLoader, err := loader.NewChain(appLogger,
		loader.RemoteCSV(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.RemoteHistoryURL),
		loader.LocalCSV(localLatest),
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize history loader")
		log.Fatalf("FATAL: Failed to initialize history loader: %v", err)
	}

	// 5. Initialize Publisher
	publisher, err := publish.New(publish.Config{
		OutputDir: cfg.OutputDir,
		IndexPath: cfg.IndexPath,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize publisher")
		log.Fatalf("FATAL: Failed to initialize publisher: %v", err)
	}

	// 6. Initialize Run Archive (optional)
	var archive ports.RunArchiver
	if cfg.ArchiveEnabled {
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger,
		})
		if err != nil {
			// The archive is a convenience; a broken database must not block the run
			appLogger.Warn(context.Background(), "Archive unavailable, continuing without it",
				map[string]interface{}{"reason": err.Error()})
		} else {
			defer func() {
				if err := repo.Close(); err != nil {
					appLogger.Error(context.Background(), err, "Error closing archive database")
				}
			}()
			archive = repo
		}
	}

	// 7. Initialize Application Service
	collector, err := app.NewCollectorService(cfg, appLogger, source, histLoader, publisher, archive)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize collector service")
		log.Fatalf("FATAL: Failed to initialize collector service: %v", err)
	}

	// 8. Run the pipeline once and exit
	if err := collector.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Collection run failed")
		log.Fatalf("FATAL: Collection run failed: %v", err)
	}

	appLogger.Info(context.Background(), "Done.")
}
