package universeService

import (
	"context"
	"fmt"
	"testing"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/data/repository"
	"github.com/KotFed0t/stock_screener/internal/externalApi"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTickersApi struct {
	byExchange map[string][]string
	err        error
	calls      int
}

func (f *fakeTickersApi) GetTickers(_ context.Context, exchange string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byExchange[exchange], nil
}

type fakeStore struct {
	listed []model.ListedTicker
	err    error
	saved  int
}

type fakeCache struct{ fakeStore }

func (f *fakeCache) GetTickers(_ context.Context, _ []string) ([]model.ListedTicker, error) {
	return f.listed, f.err
}

func (f *fakeCache) SetTickers(_ context.Context, listed []model.ListedTicker) error {
	f.saved++
	f.listed = listed
	return nil
}

type fakeRepo struct{ fakeStore }

func (f *fakeRepo) GetTickers(context.Context) ([]model.ListedTicker, error) {
	return f.listed, f.err
}

func (f *fakeRepo) SaveTickers(_ context.Context, listed []model.ListedTicker) error {
	f.saved++
	f.listed = listed
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Nasdaq.Exchanges = []string{"nyse", "nasdaq"}
	return cfg
}

func screener() *fakeTickersApi {
	return &fakeTickersApi{byExchange: map[string][]string{
		"nyse":   {"IBM", "BRK/A", " KO", "IBM"},
		"nasdaq": {"AAPL", "KO", ""},
	}}
}

func TestLoadUniverse_FetchesAndWritesThrough(t *testing.T) {
	api := screener()
	cache := &fakeCache{fakeStore{err: fmt.Errorf("miss")}}
	repo := &fakeRepo{}

	tickers, err := New(testConfig(), api, cache, repo).LoadUniverse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"IBM", "BRK.A", "KO", "AAPL"}, tickers)
	assert.Equal(t, 1, cache.saved)
	assert.Equal(t, 1, repo.saved)
	assert.Equal(t, model.ListedTicker{Ticker: "KO", Exchange: "nyse"}, repo.listed[2])
}

func TestLoadUniverse_CacheHit(t *testing.T) {
	api := screener()
	cache := &fakeCache{fakeStore{listed: []model.ListedTicker{{Ticker: "MSFT", Exchange: "nasdaq"}}}}

	tickers, err := New(testConfig(), api, cache, nil).LoadUniverse(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT"}, tickers)
	assert.Zero(t, api.calls)
}

func TestLoadUniverse_FallsBackToRepository(t *testing.T) {
	api := &fakeTickersApi{err: externalApi.ErrTransport}
	repo := &fakeRepo{fakeStore{listed: []model.ListedTicker{{Ticker: "IBM", Exchange: "nyse"}}}}

	tickers, err := New(testConfig(), api, nil, repo).LoadUniverse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM"}, tickers)
}

func TestLoadUniverse_NoFallback(t *testing.T) {
	api := &fakeTickersApi{err: externalApi.ErrTransport}
	repo := &fakeRepo{fakeStore{err: repository.ErrNotFound}}

	_, err := New(testConfig(), api, nil, repo).LoadUniverse(context.Background())
	assert.ErrorIs(t, err, externalApi.ErrTransport)

	_, err = New(testConfig(), api, nil, nil).LoadUniverse(context.Background())
	assert.ErrorIs(t, err, externalApi.ErrTransport)
}

func TestLoadUniverse_Empty(t *testing.T) {
	api := &fakeTickersApi{byExchange: map[string][]string{}}

	_, err := New(testConfig(), api, nil, nil).LoadUniverse(context.Background())
	assert.ErrorIs(t, err, service.ErrEmptyUniverse)
}
