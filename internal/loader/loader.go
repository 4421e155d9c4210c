// Package loader obtains the best-available prior price series from an
// ordered chain of sources: published remote copy, local file, empty.
package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"btcspot/internal/domain"
	"btcspot/internal/ports"
	"btcspot/internal/utils"
)

// Source is one attempt in the fallback chain. Load returns the series on
// success; any error makes the chain fall through to the next source.
type Source struct {
	Name string
	Load func(ctx context.Context) (domain.Series, error)
}

// Chain implements ports.HistoryLoader over an ordered list of sources.
type Chain struct {
	sources []Source
	logger  ports.Logger
}

// NewChain creates a loader that tries sources in the given order.
func NewChain(logger ports.Logger, sources ...Source) (*Chain, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for history loader")
	}
	return &Chain{sources: sources, logger: logger}, nil
}

// Load tries each source in order and returns the first series obtained.
// Source failures are logged and swallowed; when every source fails the
// result is an empty series, never an error.
func (c *Chain) Load(ctx context.Context) domain.Series {
	for _, src := range c.sources {
		series, err := src.Load(ctx)
		if err != nil {
			c.logger.Warn(ctx, "History source unavailable, falling through",
				map[string]interface{}{"source": src.Name, "reason": err.Error()})
			continue
		}
		c.logger.Info(ctx, "Loaded prior series",
			map[string]interface{}{"source": src.Name, "rows": len(series)})
		return series
	}
	c.logger.Info(ctx, "No prior series available, starting empty")
	return domain.Series{}
}

// RemoteCSV loads the published copy of the series over HTTP. An empty URL
// means the source is not configured and always reports unavailable.
func RemoteCSV(client *http.Client, url string) Source {
	return Source{
		Name: "remote",
		Load: func(ctx context.Context) (domain.Series, error) {
			if url == "" {
				return nil, fmt.Errorf("no remote history URL configured: %w", ports.ErrSourceUnavailable)
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, fmt.Errorf("building request for %s: %w", url, ports.ErrSourceUnavailable)
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("fetching %s: %v: %w", url, err, ports.ErrSourceUnavailable)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, resp.Body)
				return nil, fmt.Errorf("fetching %s: status %d: %w", url, resp.StatusCode, ports.ErrSourceUnavailable)
			}
			series, _, err := utils.DecodeSeries(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("decoding remote series: %v: %w", err, ports.ErrSourceUnavailable)
			}
			return series, nil
		},
	}
}

// LocalCSV loads the series from a previously written local file.
func LocalCSV(path string) Source {
	return Source{
		Name: "local",
		Load: func(ctx context.Context) (domain.Series, error) {
			if _, err := os.Stat(path); err != nil {
				return nil, fmt.Errorf("stat %s: %v: %w", path, err, ports.ErrSourceUnavailable)
			}
			series, _, err := utils.ReadSeriesFromCSV(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %v: %w", path, err, ports.ErrSourceUnavailable)
			}
			return series, nil
		},
	}
}
