package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/utils"
	"github.com/redis/go-redis/v9"
)

const universeKeyPrefix = "universe:"

var ErrCacheMiss = errors.New("cache miss")

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func universeKey(exchange string) string {
	return universeKeyPrefix + exchange
}

// SetTickers stores the listed tickers grouped by exchange, one key per exchange.
func (r *RedisCache) SetTickers(ctx context.Context, listed []model.ListedTicker) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetTickers"
	slog.Debug("SetTickers start", slog.String("rqID", rqID), slog.String("op", op))

	byExchange := make(map[string][]string)
	for _, l := range listed {
		byExchange[l.Exchange] = append(byExchange[l.Exchange], l.Ticker)
	}

	pipe := r.redis.Pipeline()
	for exchange, tickers := range byExchange {
		tickersJson, err := json.Marshal(tickers)
		if err != nil {
			slog.Error(
				"can't marshall tickers in SetTickers",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.String("exchange", exchange),
			)
			return errors.New("can't marshall tickers")
		}

		pipe.Set(ctx, universeKey(exchange), tickersJson, r.cfg.Cache.UniverseExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetTickers completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("exchanges", len(byExchange)))

	return nil
}

// GetTickers returns the cached tickers of the given exchanges in the given order.
// A missing exchange makes the whole lookup a miss.
func (r *RedisCache) GetTickers(ctx context.Context, exchanges []string) ([]model.ListedTicker, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetTickers"
	slog.Debug("GetTickers start", slog.String("rqID", rqID), slog.String("op", op))

	if len(exchanges) == 0 {
		return nil, ErrCacheMiss
	}

	keys := make([]string, 0, len(exchanges))
	for _, exchange := range exchanges {
		keys = append(keys, universeKey(exchange))
	}

	res, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	var listed []model.ListedTicker
	for i, raw := range res {
		str, ok := raw.(string)
		if !ok {
			slog.Debug("cache miss", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", keys[i]))
			return nil, ErrCacheMiss
		}

		var tickers []string
		if err = json.Unmarshal([]byte(str), &tickers); err != nil {
			slog.Error(
				"can't unmarshall tickers in GetTickers",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.String("key", keys[i]),
			)
			return nil, fmt.Errorf("can't unmarshall tickers: %w", err)
		}

		for _, ticker := range tickers {
			listed = append(listed, model.ListedTicker{Ticker: ticker, Exchange: exchanges[i]})
		}
	}

	slog.Debug("GetTickers finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(listed)))

	return listed, nil
}
