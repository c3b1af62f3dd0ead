package acquireService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/model/tdaModel"
	"github.com/KotFed0t/stock_screener/internal/service"
	"github.com/KotFed0t/stock_screener/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 500

type MarketDataApi interface {
	GetFundamentals(ctx context.Context, tickers []string) (tdaModel.FundamentalsResponse, error)
	GetQuotes(ctx context.Context, tickers []string) (tdaModel.QuotesResponse, error)
}

// Progress receives (completed, total) ticker counts and may ask acquisition to stop.
type Progress interface {
	Update(completed, total int)
	Cancelled() bool
}

type AcquireService struct {
	api                MarketDataApi
	progress           Progress
	batchSize          int
	maxQuoteAttempts   int
	retryDelay         time.Duration
	parallelism        int
	acceptPartialBatch bool
}

type batchResult struct {
	fundamentals []model.Record
	quotes       []model.Record
}

// quotesOutcome tells whether the quotes response matched the fundamentals count within the attempt cap.
type quotesOutcome struct {
	quotes    tdaModel.QuotesResponse
	attempts  int
	exhausted bool
}

func New(cfg *config.Config, api MarketDataApi, progress Progress) *AcquireService {
	s := &AcquireService{
		api:                api,
		progress:           progress,
		batchSize:          cfg.Acquire.BatchSize,
		maxQuoteAttempts:   cfg.Acquire.MaxQuoteAttempts,
		retryDelay:         cfg.Acquire.RetryDelay,
		parallelism:        cfg.Acquire.Parallelism,
		acceptPartialBatch: cfg.Acquire.AcceptPartialBatch,
	}

	if s.batchSize <= 0 {
		s.batchSize = defaultBatchSize
	}
	if s.maxQuoteAttempts <= 0 {
		s.maxQuoteAttempts = 1
	}
	if s.parallelism <= 0 {
		s.parallelism = 1
	}
	if s.progress == nil {
		s.progress = noopProgress{}
	}

	return s
}

// Acquire fetches fundamentals and quotes for every ticker and joins them into the baseline table.
// Any fault aborts the whole run and no table is returned.
func (s *AcquireService) Acquire(ctx context.Context, tickers []string) (model.Table, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AcquireService.Acquire"

	if len(tickers) == 0 {
		return model.Table{}, service.ErrEmptyUniverse
	}

	batches := partition(tickers, s.batchSize)
	total := len(tickers)

	slog.Info(
		"acquisition start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("tickers", total),
		slog.Int("batches", len(batches)),
		slog.Int("parallelism", s.parallelism),
	)

	s.progress.Update(0, total)

	results := make([]batchResult, len(batches))
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, batch := range batches {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if s.progress.Cancelled() {
				return service.ErrAcquisitionCancelled
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := s.fetchBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			results[i] = res

			s.progress.Update(int(completed.Add(int64(len(batch)))), total)
			return nil
		})
	}

	err := g.Wait()
	if err == nil && s.progress.Cancelled() {
		err = service.ErrAcquisitionCancelled
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, service.ErrAcquisitionCancelled) {
			slog.Warn("acquisition cancelled", slog.String("rqID", rqID), slog.String("op", op))
			return model.Table{}, err
		}
		if s.progress.Cancelled() || errors.Is(ctx.Err(), context.Canceled) {
			slog.Warn("acquisition cancelled", slog.String("rqID", rqID), slog.String("op", op))
			return model.Table{}, fmt.Errorf("%w: %w", service.ErrAcquisitionCancelled, err)
		}
		slog.Error("acquisition failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Table{}, err
	}

	var fundamentals, quotes []model.Record
	for _, res := range results {
		fundamentals = append(fundamentals, res.fundamentals...)
		quotes = append(quotes, res.quotes...)
	}

	table, unmatched := model.JoinBySymbol(fundamentals, quotes, model.QuoteColumns)
	if len(unmatched) > 0 {
		if !s.acceptPartialBatch {
			slog.Error("symbols present on one side only", slog.String("rqID", rqID), slog.String("op", op), slog.Any("symbols", unmatched))
			return model.Table{}, fmt.Errorf("%w: %d symbols present in only one response: %v", service.ErrInconsistentBatch, len(unmatched), unmatched)
		}
		slog.Warn("dropping symbols present on one side only", slog.String("rqID", rqID), slog.String("op", op), slog.Any("symbols", unmatched))
	}

	slog.Info("acquisition complete", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", table.Len()))

	return table, nil
}

func (s *AcquireService) fetchBatch(ctx context.Context, num int, batch []string) (batchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "AcquireService.fetchBatch"

	slog.Debug("fetchBatch start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("batch", num), slog.Int("tickers", len(batch)))

	fundamentals, err := s.api.GetFundamentals(ctx, batch)
	if err != nil {
		return batchResult{}, fmt.Errorf("batch %d fundamentals: %w", num, err)
	}

	if len(fundamentals) == 0 {
		return batchResult{}, fmt.Errorf("%w: batch %d produced zero entries", service.ErrMalformedBatch, num)
	}

	outcome, err := s.fetchConsistentQuotes(ctx, num, batch, len(fundamentals))
	if err != nil {
		return batchResult{}, err
	}

	if outcome.exhausted {
		slog.Warn(
			"quotes count still differs from fundamentals",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.Int("batch", num),
			slog.Int("attempts", outcome.attempts),
			slog.Int("fundamentals", len(fundamentals)),
			slog.Int("quotes", len(outcome.quotes)),
		)
		if !s.acceptPartialBatch {
			return batchResult{}, fmt.Errorf(
				"%w: batch %d got %d quotes for %d fundamentals after %d attempts",
				service.ErrInconsistentBatch, num, len(outcome.quotes), len(fundamentals), outcome.attempts,
			)
		}
	}

	res := batchResult{
		fundamentals: make([]model.Record, 0, len(fundamentals)),
		quotes:       make([]model.Record, 0, len(outcome.quotes)),
	}

	for sym, instrument := range fundamentals {
		rec, err := fundamentalRecord(sym, instrument)
		if err != nil {
			return batchResult{}, fmt.Errorf("batch %d: %w", num, err)
		}
		res.fundamentals = append(res.fundamentals, rec)
	}

	for sym, quote := range outcome.quotes {
		res.quotes = append(res.quotes, quoteRecord(sym, quote))
	}

	slog.Debug(
		"fetchBatch finished",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.Int("batch", num),
		slog.Int("quoteAttempts", outcome.attempts),
	)

	return res, nil
}

// fetchConsistentQuotes re-requests quotes until their count equals want or the attempt cap is reached.
// The provider sometimes returns a truncated quotes payload for an unchanged request.
func (s *AcquireService) fetchConsistentQuotes(ctx context.Context, num int, batch []string, want int) (quotesOutcome, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	for attempt := 1; ; attempt++ {
		quotes, err := s.api.GetQuotes(ctx, batch)
		if err != nil {
			return quotesOutcome{}, fmt.Errorf("batch %d quotes: %w", num, err)
		}

		if len(quotes) == want {
			return quotesOutcome{quotes: quotes, attempts: attempt}, nil
		}

		if attempt >= s.maxQuoteAttempts {
			return quotesOutcome{quotes: quotes, attempts: attempt, exhausted: true}, nil
		}

		slog.Debug(
			"quotes count mismatch, retrying",
			slog.String("rqID", rqID),
			slog.Int("batch", num),
			slog.Int("attempt", attempt),
			slog.Int("want", want),
			slog.Int("got", len(quotes)),
		)

		if s.progress.Cancelled() {
			return quotesOutcome{}, service.ErrAcquisitionCancelled
		}

		if s.retryDelay > 0 {
			timer := time.NewTimer(s.retryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return quotesOutcome{}, ctx.Err()
			}
		}
	}
}

func fundamentalRecord(sym string, instrument tdaModel.Instrument) (model.Record, error) {
	if instrument.Fundamental == nil {
		return nil, fmt.Errorf("%w: %s has no fundamental object", service.ErrMalformedBatch, sym)
	}

	rec := toRecord(instrument.Fundamental)
	if rec.Symbol() == "" {
		rec[model.SymbolColumn] = model.Text(sym)
	}
	rec[model.DescriptionColumn] = model.Text(instrument.Description)
	rec[model.ExchangeColumn] = model.Text(instrument.Exchange)

	return rec, nil
}

func quoteRecord(sym string, quote map[string]any) model.Record {
	rec := make(model.Record, len(model.QuoteColumns))
	for _, c := range model.QuoteColumns {
		v, err := model.ValueOf(quote[c.Name])
		if err != nil {
			continue
		}
		rec[c.Name] = v
	}

	if rec.Symbol() == "" {
		rec[model.SymbolColumn] = model.Text(sym)
	}

	if rec[model.PercentChangeColumn].IsNull() {
		if pct, ok := percentChange(rec[model.LastPriceColumn], rec[model.NetChangeColumn]); ok {
			rec[model.PercentChangeColumn] = model.Number(pct)
		}
	}

	return rec
}

// percentChange derives the day change in percent from the last price and the net change.
func percentChange(last, change model.Value) (float64, bool) {
	if last.Kind != model.KindNumber || change.Kind != model.KindNumber {
		return 0, false
	}

	lastPrice := decimal.NewFromFloat(last.Num)
	netChange := decimal.NewFromFloat(change.Num)
	prevClose := lastPrice.Sub(netChange)
	if prevClose.IsZero() {
		return 0, false
	}

	return netChange.Div(prevClose).Mul(decimal.NewFromInt(100)).Round(4).InexactFloat64(), true
}

// toRecord keeps scalar attributes only.
func toRecord(raw map[string]any) model.Record {
	rec := make(model.Record, len(raw)+2)
	for k, v := range raw {
		val, err := model.ValueOf(v)
		if err != nil {
			continue
		}
		rec[k] = val
	}
	return rec
}

// partition splits tickers into consecutive batches of at most size elements.
func partition(tickers []string, size int) [][]string {
	batches := make([][]string, 0, (len(tickers)+size-1)/size)
	for start := 0; start < len(tickers); start += size {
		end := min(start+size, len(tickers))
		batches = append(batches, tickers[start:end])
	}
	return batches
}

type noopProgress struct{}

func (noopProgress) Update(int, int) {}

func (noopProgress) Cancelled() bool { return false }
