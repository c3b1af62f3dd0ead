package nasdaqApi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/externalApi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(srvURL string) *NasdaqApi {
	cfg := &config.Config{}
	cfg.API.Timeout = 5 * time.Second
	cfg.Nasdaq.Url = srvURL
	return New(cfg)
}

func TestGetTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/screener/stocks", r.URL.Path)
		assert.Equal(t, "amex", r.URL.Query().Get("exchange"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		_, _ = w.Write([]byte(`{"data": {"rows": [{"symbol": "BRK/A "}, {"symbol": "SPY"}]}, "status": {"rCode": 200}}`))
	}))
	defer srv.Close()

	tickers, err := newTestApi(srv.URL).GetTickers(context.Background(), "amex")
	require.NoError(t, err)
	assert.Equal(t, []string{"BRK/A ", "SPY"}, tickers)
}

func TestGetTickers_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "status": {"rCode": 400}}`))
	}))
	defer srv.Close()

	_, err := newTestApi(srv.URL).GetTickers(context.Background(), "nyse")
	assert.ErrorIs(t, err, externalApi.ErrInvalidResponse)
}

func TestGetTickers_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestApi(srv.URL).GetTickers(context.Background(), "nyse")
	assert.ErrorIs(t, err, externalApi.ErrTransport)
}
