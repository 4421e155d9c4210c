package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"btcspot/internal/domain"
	"btcspot/internal/ports"
)

const (
	defaultBaseURL    = "https://api.coingecko.com/api/v3"
	defaultProBaseURL = "https://pro-api.coingecko.com/api/v3"
	defaultTimeout    = 30 * time.Second

	// Header carrying the pro API credential.
	apiKeyHeader = "x-cg-pro-api-key"
)

// Client implements the ports.PriceSource interface against the CoinGecko API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	proBaseURL string
	apiKey     string
	coinID     string
	vsCurrency string
	logger     ports.Logger
}

// Config holds configuration specific to the CoinGecko client adapter.
type Config struct {
	APIKey     string // Optional pro credential; empty disables HistoryRange
	BaseURL    string
	ProBaseURL string
	CoinID     string // e.g. "bitcoin"
	VsCurrency string // e.g. "usd"
	Timeout    time.Duration
	Logger     ports.Logger
}

// New creates a new CoinGecko client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CoinGecko client")
	}
	if cfg.CoinID == "" || cfg.VsCurrency == "" {
		return nil, fmt.Errorf("coin ID and quote currency are required: %w", ports.ErrConfigurationError)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	proBaseURL := cfg.ProBaseURL
	if proBaseURL == "" {
		proBaseURL = defaultProBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cfg.APIKey == "" {
		cfg.Logger.Info(context.Background(), "No API key configured, bulk-history fetch disabled")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		proBaseURL: proBaseURL,
		apiKey:     cfg.APIKey,
		coinID:     cfg.CoinID,
		vsCurrency: cfg.VsCurrency,
		logger:     cfg.Logger,
	}, nil
}

// HasHistoryAccess reports whether the credentialed bulk-history endpoint can
// be attempted.
func (c *Client) HasHistoryAccess() bool {
	return c.apiKey != ""
}

// CurrentPrice retrieves a single observation dated today in the local
// calendar. It uses the public simple/price endpoint and needs no credential.
func (c *Client) CurrentPrice(ctx context.Context) (domain.PricePoint, error) {
	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", c.vsCurrency)
	u := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	body, err := c.get(ctx, u, false)
	if err != nil {
		return domain.PricePoint{}, err
	}

	// {"bitcoin": {"usd": 12345.67}}
	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.PricePoint{}, fmt.Errorf("decoding current price: %v: %w", err, ports.ErrBadResponse)
	}
	price, ok := payload[c.coinID][c.vsCurrency]
	if !ok {
		return domain.PricePoint{}, fmt.Errorf("no %s/%s price in response: %w", c.coinID, c.vsCurrency, ports.ErrBadResponse)
	}

	point := domain.PricePoint{Date: domain.Today(), Price: price}
	c.logger.Info(ctx, "Fetched current price",
		map[string]interface{}{"date": point.Date.String(), "price": point.Price})
	return point, nil
}

// historyResponse is the market_chart/range response shape. Each prices entry
// is a [timestamp-ms, price] pair.
type historyResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// HistoryRange retrieves daily observations covering [from, to] via the
// credentialed market_chart/range endpoint. When several samples fall on the
// same calendar day the last one wins.
func (c *Client) HistoryRange(ctx context.Context, from, to time.Time) (domain.Series, error) {
	if c.apiKey == "" {
		return nil, ports.ErrHistoryUnavailable
	}

	q := url.Values{}
	q.Set("vs_currency", c.vsCurrency)
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	u := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.proBaseURL, url.PathEscape(c.coinID), q.Encode())

	body, err := c.get(ctx, u, true)
	if err != nil {
		return nil, err
	}

	var payload historyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding history range: %v: %w", err, ports.ErrBadResponse)
	}
	if payload.Prices == nil {
		return nil, fmt.Errorf("no prices field in response: %w", ports.ErrBadResponse)
	}

	byDate := make(map[domain.Date]float64, len(payload.Prices))
	for _, pair := range payload.Prices {
		ts := time.UnixMilli(int64(pair[0]))
		byDate[domain.DateOf(ts)] = pair[1]
	}
	series := make(domain.Series, 0, len(byDate))
	for date, price := range byDate {
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}
	series.SortByDate()

	c.logger.Info(ctx, "Fetched bulk history",
		map[string]interface{}{"days": len(series), "from": from.Unix(), "to": to.Unix()})
	return series, nil
}

// get performs one bounded GET and translates transport- and status-level
// failures into standard ports errors.
func (c *Client) get(ctx context.Context, u string, authed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %v: %w", err, ports.ErrTransport)
	}
	req.Header.Set("Accept", "application/json")
	if authed {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("calling %s: %v: %w", u, err, ports.ErrTimeout)
		}
		return nil, fmt.Errorf("calling %s: %v: %w", u, err, ports.ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %v: %w", err, ports.ErrTransport)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d from %s: %w", resp.StatusCode, u, ports.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("status %d from %s: %w", resp.StatusCode, u, ports.ErrAuthenticationFailed)
	default:
		return nil, fmt.Errorf("status %d from %s: %w", resp.StatusCode, u, ports.ErrTransport)
	}
}
