package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"btcspot/config"
	"btcspot/internal/domain"
	"btcspot/internal/history"
	"btcspot/internal/ports"
)

// CollectorService orchestrates one collection run: load prior series,
// optionally backfill, fetch today's point, merge, publish, archive.
// Control flows strictly forward; only the current-point fetch and the final
// write can fail the run.
type CollectorService struct {
	cfg     *config.Config
	logger  ports.Logger
	source  ports.PriceSource
	loader  ports.HistoryLoader
	writer  ports.OutputWriter
	archive ports.RunArchiver // Optional; nil disables archiving
}

// NewCollectorService creates a new application service instance.
func NewCollectorService(
	cfg *config.Config,
	logger ports.Logger,
	source ports.PriceSource,
	loader ports.HistoryLoader,
	writer ports.OutputWriter,
	archive ports.RunArchiver,
) (*CollectorService, error) {

	// Validate dependencies; the archive alone is optional
	if cfg == nil || logger == nil || source == nil || loader == nil || writer == nil {
		return nil, fmt.Errorf("missing required dependencies for CollectorService")
	}
	if cfg.HistoryStart.IsZero() {
		return nil, fmt.Errorf("configuration HistoryStart must be set")
	}

	return &CollectorService{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		loader:  loader,
		writer:  writer,
		archive: archive,
	}, nil
}

// Run executes one full collection pass. The returned error is non-nil only
// for the two unrecoverable cases: the current-point fetch and the final
// write.
func (s *CollectorService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting collection run")

	// 1. Load the best-available prior series. Never fails; worst case empty.
	existing := s.loader.Load(ctx)

	// 2. Backfill: with no prior series and a credentialed source, the bulk
	// history becomes the new baseline. A missing or failed backfill must
	// never abort the run.
	if len(existing) == 0 && s.source.HasHistoryAccess() {
		existing = s.backfill(ctx)
	}

	// 3. Fetch today's observation. The one call the pipeline cannot proceed
	// without.
	point, err := s.source.CurrentPrice(ctx)
	if err != nil {
		return fmt.Errorf("current price fetch failed: %w", err)
	}

	// 4. Merge, incoming wins on date collisions.
	merged := history.Merge(existing, domain.Series{point})
	s.logger.Info(ctx, "Series merged", map[string]interface{}{
		"prior": len(existing), "merged": len(merged),
	})

	// 5. Publish CSV artifacts and the redirect page.
	filename, err := s.writer.Write(ctx, merged)
	if err != nil {
		return fmt.Errorf("writing outputs failed: %w", err)
	}

	// 6. Archive the run. Best effort; the CSV artifacts are authoritative.
	s.archiveRun(ctx, merged, filename)

	s.logger.Info(ctx, "Collection run finished", map[string]interface{}{
		"rows": len(merged), "output": filename,
	})
	return nil
}

// backfill attempts the credentialed bulk-history fetch from the configured
// start bound through now. Failures degrade to an empty baseline.
func (s *CollectorService) backfill(ctx context.Context) domain.Series {
	from := s.cfg.HistoryStart.Time()
	to := time.Now()
	s.logger.Info(ctx, "No prior series, attempting bulk-history backfill",
		map[string]interface{}{"from": s.cfg.HistoryStart.String()})

	series, err := s.source.HistoryRange(ctx, from, to)
	if err != nil {
		if errors.Is(err, ports.ErrHistoryUnavailable) {
			s.logger.Info(ctx, "Bulk-history fetch not available, proceeding without backfill")
		} else {
			s.logger.Warn(ctx, "Bulk-history fetch failed, proceeding without backfill",
				map[string]interface{}{"reason": err.Error()})
		}
		return domain.Series{}
	}
	return series
}

// archiveRun stores the merged series and a run record. Archive failures are
// logged and swallowed.
func (s *CollectorService) archiveRun(ctx context.Context, merged domain.Series, filename string) {
	if s.archive == nil {
		return
	}

	if err := s.archive.SaveSeries(ctx, merged); err != nil {
		s.logger.Warn(ctx, "Failed to archive series", map[string]interface{}{"reason": err.Error()})
		return
	}

	run := &domain.RunRecord{
		RunTime:    time.Now(),
		PointCount: len(merged),
		OutputFile: filename,
	}
	if last, ok := merged.Last(); ok {
		run.LatestDate = last.Date
		run.LatestPrice = last.Price
	}
	if _, err := s.archive.RecordRun(ctx, run); err != nil {
		s.logger.Warn(ctx, "Failed to record run", map[string]interface{}{"reason": err.Error()})
	}
}
