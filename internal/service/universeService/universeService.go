package universeService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/service"
	"github.com/KotFed0t/stock_screener/utils"
)

type TickersApi interface {
	GetTickers(ctx context.Context, exchange string) ([]string, error)
}

type Cache interface {
	GetTickers(ctx context.Context, exchanges []string) ([]model.ListedTicker, error)
	SetTickers(ctx context.Context, listed []model.ListedTicker) error
}

type Repository interface {
	GetTickers(ctx context.Context) ([]model.ListedTicker, error)
	SaveTickers(ctx context.Context, listed []model.ListedTicker) error
}

// UniverseService enumerates the tickers to screen. Cache and repository are optional.
type UniverseService struct {
	api       TickersApi
	cache     Cache
	repo      Repository
	exchanges []string
}

func New(cfg *config.Config, api TickersApi, cache Cache, repo Repository) *UniverseService {
	return &UniverseService{
		api:       api,
		cache:     cache,
		repo:      repo,
		exchanges: cfg.Nasdaq.Exchanges,
	}
}

// LoadUniverse returns normalized, de-duplicated tickers: cached when possible, otherwise fetched
// from the screener and stored, and the last stored universe when the screener is unavailable.
func (s *UniverseService) LoadUniverse(ctx context.Context) ([]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "UniverseService.LoadUniverse"

	slog.Debug("LoadUniverse start", slog.String("rqID", rqID), slog.String("op", op))

	if s.cache != nil {
		listed, err := s.cache.GetTickers(ctx, s.exchanges)
		if err == nil && len(listed) > 0 {
			tickers := model.Symbols(listed)
			slog.Info("universe loaded from cache", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)))
			return tickers, nil
		}
	}

	listed, fetchErr := s.fetch(ctx)
	if fetchErr == nil {
		s.store(ctx, listed)
		tickers := model.Symbols(listed)
		slog.Info("universe loaded from screener", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)))
		return tickers, nil
	}

	slog.Warn("screener unavailable", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", fetchErr.Error()))

	if s.repo == nil {
		return nil, fetchErr
	}

	listed, err := s.repo.GetTickers(ctx)
	if err != nil {
		slog.Error("no stored universe to fall back to", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fetchErr
	}

	tickers := model.Symbols(listed)
	slog.Info("universe loaded from postgres", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(tickers)))

	return tickers, nil
}

func (s *UniverseService) fetch(ctx context.Context) ([]model.ListedTicker, error) {
	seen := make(map[string]struct{})
	var listed []model.ListedTicker

	for _, exchange := range s.exchanges {
		raw, err := s.api.GetTickers(ctx, exchange)
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", exchange, err)
		}

		for _, ticker := range model.UniqueTickers(raw) {
			if _, ok := seen[ticker]; ok {
				continue
			}
			seen[ticker] = struct{}{}
			listed = append(listed, model.ListedTicker{Ticker: ticker, Exchange: exchange})
		}
	}

	if len(listed) == 0 {
		return nil, service.ErrEmptyUniverse
	}

	return listed, nil
}

// store writes through to cache and repository. Failures are logged only.
func (s *UniverseService) store(ctx context.Context, listed []model.ListedTicker) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "UniverseService.store"

	if s.cache != nil {
		if err := s.cache.SetTickers(ctx, listed); err != nil {
			slog.Warn("can't cache universe", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	if s.repo != nil {
		if err := s.repo.SaveTickers(ctx, listed); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("can't save universe", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}
}
