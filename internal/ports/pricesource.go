package ports

import (
	"context"
	"time"

	"btcspot/internal/domain"
)

// PriceSource defines the interface for fetching price observations from an
// external price API. This abstraction decouples the pipeline from the
// concrete provider implementation.
type PriceSource interface {
	// CurrentPrice retrieves a single observation for the current local
	// calendar date. It requires no credential. The pipeline cannot proceed
	// without it, so any failure here is terminal for the run.
	CurrentPrice(ctx context.Context) (domain.PricePoint, error)

	// HistoryRange retrieves daily observations covering [from, to].
	// Returns an error wrapping ErrHistoryUnavailable when no credential is
	// configured; callers treat that as an absent optional capability.
	HistoryRange(ctx context.Context, from, to time.Time) (domain.Series, error)

	// HasHistoryAccess reports whether HistoryRange can be attempted at all.
	HasHistoryAccess() bool
}

// HistoryLoader obtains the best-available prior price series. It cannot fail:
// when every source is unavailable it returns an empty series.
type HistoryLoader interface {
	Load(ctx context.Context) domain.Series
}

// OutputWriter persists a merged series and regenerates the redirect page.
// It returns the name of the dated artifact it wrote.
type OutputWriter interface {
	Write(ctx context.Context, series domain.Series) (string, error)
}

// RunArchiver records completed runs and their merged points in durable
// storage. Archive failures must not fail the run; the CSV artifacts remain
// the system of record.
type RunArchiver interface {
	// SaveSeries upserts every point of the series, keyed by date.
	SaveSeries(ctx context.Context, series domain.Series) error
	// RecordRun appends one run record and returns its assigned ID.
	RecordRun(ctx context.Context, run *domain.RunRecord) (int64, error)
}
