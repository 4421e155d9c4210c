package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"btcspot/internal/domain"
	"btcspot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, apiKey string, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		APIKey:     apiKey,
		BaseURL:    server.URL,
		ProBaseURL: server.URL,
		CoinID:     "bitcoin",
		VsCurrency: "usd",
		Timeout:    2 * time.Second,
		Logger:     &mockLogger{},
	})
	require.NoError(t, err)
	return client
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{CoinID: "bitcoin", VsCurrency: "usd"})
	assert.Error(t, err, "logger is required")

	_, err = New(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestHasHistoryAccess(t *testing.T) {
	withKey := newTestClient(t, "k", http.NotFoundHandler())
	assert.True(t, withKey.HasHistoryAccess())

	withoutKey := newTestClient(t, "", http.NotFoundHandler())
	assert.False(t, withoutKey.HasHistoryAccess())
}

func TestCurrentPrice(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/simple/price", r.URL.Path)
			assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
			assert.Empty(t, r.Header.Get(apiKeyHeader))
			w.Write([]byte(`{"bitcoin":{"usd":64123.45}}`))
		}))

		point, err := client.CurrentPrice(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 64123.45, point.Price)
		assert.Equal(t, domain.Today(), point.Date)
	})

	t.Run("missing price field", func(t *testing.T) {
		client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"bitcoin":{}}`))
		}))

		_, err := client.CurrentPrice(context.Background())
		assert.ErrorIs(t, err, ports.ErrBadResponse)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))

		_, err := client.CurrentPrice(context.Background())
		assert.ErrorIs(t, err, ports.ErrBadResponse)
	})

	t.Run("server error is transport failure", func(t *testing.T) {
		client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.CurrentPrice(context.Background())
		assert.ErrorIs(t, err, ports.ErrTransport)
	})

	t.Run("unreachable host is transport failure", func(t *testing.T) {
		client, err := New(Config{
			BaseURL:    "http://127.0.0.1:1",
			CoinID:     "bitcoin",
			VsCurrency: "usd",
			Timeout:    500 * time.Millisecond,
			Logger:     &mockLogger{},
		})
		require.NoError(t, err)

		_, err = client.CurrentPrice(context.Background())
		assert.ErrorIs(t, err, ports.ErrTransport)
	})
}

func TestHistoryRange(t *testing.T) {
	from := time.Date(2013, time.April, 28, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)

	t.Run("success with credential header", func(t *testing.T) {
		// Two samples on Jan 2 local time: the later one must win.
		jan1 := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local).UnixMilli()
		jan2a := time.Date(2024, time.January, 2, 1, 0, 0, 0, time.Local).UnixMilli()
		jan2b := time.Date(2024, time.January, 2, 13, 0, 0, 0, time.Local).UnixMilli()

		client := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/bitcoin/market_chart/range", r.URL.Path)
			assert.Equal(t, "secret", r.Header.Get(apiKeyHeader))
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			assert.NotEmpty(t, r.URL.Query().Get("from"))
			assert.NotEmpty(t, r.URL.Query().Get("to"))
			body := `{"prices":[` +
				`[` + formatMillis(jan1) + `,40000],` +
				`[` + formatMillis(jan2a) + `,41000],` +
				`[` + formatMillis(jan2b) + `,42000]]}`
			w.Write([]byte(body))
		}))

		series, err := client.HistoryRange(context.Background(), from, to)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, domain.NewDate(2024, time.January, 1), series[0].Date)
		assert.Equal(t, 40000.0, series[0].Price)
		assert.Equal(t, domain.NewDate(2024, time.January, 2), series[1].Date)
		assert.Equal(t, 42000.0, series[1].Price)
	})

	t.Run("no credential reports unavailable", func(t *testing.T) {
		client := newTestClient(t, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("endpoint must not be called without a credential")
		}))

		_, err := client.HistoryRange(context.Background(), from, to)
		assert.ErrorIs(t, err, ports.ErrHistoryUnavailable)
	})

	t.Run("rate limited", func(t *testing.T) {
		client := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := client.HistoryRange(context.Background(), from, to)
		assert.ErrorIs(t, err, ports.ErrRateLimited)
	})

	t.Run("rejected credential", func(t *testing.T) {
		client := newTestClient(t, "bad", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.HistoryRange(context.Background(), from, to)
		assert.ErrorIs(t, err, ports.ErrAuthenticationFailed)
	})

	t.Run("missing prices field", func(t *testing.T) {
		client := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"market_caps":[]}`))
		}))

		_, err := client.HistoryRange(context.Background(), from, to)
		assert.ErrorIs(t, err, ports.ErrBadResponse)
	})

	t.Run("empty prices list is valid", func(t *testing.T) {
		client := newTestClient(t, "secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"prices":[]}`))
		}))

		series, err := client.HistoryRange(context.Background(), from, to)
		require.NoError(t, err)
		assert.Empty(t, series)
	})
}

func formatMillis(ms int64) string {
	return strconv.FormatInt(ms, 10)
}
