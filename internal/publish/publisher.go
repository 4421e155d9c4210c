// Package publish serializes the merged series into the output directory and
// regenerates the static redirect page.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"btcspot/internal/domain"
	"btcspot/internal/ports"
	"btcspot/internal/utils"
)

// LatestFilename is the fixed-name artifact always holding the most recent
// full merged series.
const LatestFilename = "latest.csv"

// indexTemplate is regenerated in full on every run. %[1]s is the output
// directory, %[2]s the dated filename.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="refresh" content="0; url=%[1]s/latest.csv">
    <title>BTC Spot Price Data</title>
</head>
<body>
    <h1>BTC Spot Price Historical Data</h1>
    <p>Redirecting to the latest data...</p>
    <p>If not redirected, <a href="%[1]s/latest.csv">click here for the latest data</a></p>
    <p>Latest file: <a href="%[1]s/%[2]s">%[2]s</a></p>
    <p>All data files are available in the <a href="%[1]s/">data directory</a></p>
</body>
</html>`

// Publisher implements the ports.OutputWriter interface on the local
// filesystem.
type Publisher struct {
	outputDir string
	indexPath string
	logger    ports.Logger
	now       func() time.Time
}

// Config holds configuration for the filesystem publisher.
type Config struct {
	OutputDir string
	IndexPath string
	Logger    ports.Logger
}

// New creates a new filesystem publisher.
func New(cfg Config) (*Publisher, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for publisher")
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required: %w", ports.ErrConfigurationError)
	}
	indexPath := cfg.IndexPath
	if indexPath == "" {
		indexPath = "index.html"
	}
	return &Publisher{
		outputDir: cfg.OutputDir,
		indexPath: indexPath,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

// Write persists the series as a dated file plus latest.csv and regenerates
// the redirect page. Reruns on the same day overwrite that day's file. It
// returns the dated filename. Any filesystem failure is returned to the
// caller, which treats it as fatal.
func (p *Publisher) Write(ctx context.Context, series domain.Series) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", p.outputDir, err)
	}

	datedName := fmt.Sprintf("btc_spot_%s.csv", p.now().Format("20060102"))
	datedPath := filepath.Join(p.outputDir, datedName)
	if err := utils.WriteSeriesToCSV(series, datedPath); err != nil {
		return "", err
	}
	p.logger.Info(ctx, "Data saved", map[string]interface{}{"path": datedPath, "rows": len(series)})

	latestPath := filepath.Join(p.outputDir, LatestFilename)
	if err := utils.WriteSeriesToCSV(series, latestPath); err != nil {
		return "", err
	}
	p.logger.Info(ctx, "Data saved", map[string]interface{}{"path": latestPath})

	page := fmt.Sprintf(indexTemplate, filepath.ToSlash(p.outputDir), datedName)
	if err := os.WriteFile(p.indexPath, []byte(page), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p.indexPath, err)
	}
	p.logger.Info(ctx, "Redirect page regenerated",
		map[string]interface{}{"path": p.indexPath, "target": datedName})

	return datedName, nil
}
