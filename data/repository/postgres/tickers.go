package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/KotFed0t/stock_screener/data/repository"
	"github.com/KotFed0t/stock_screener/internal/converter/dbConverter"
	"github.com/KotFed0t/stock_screener/internal/model"
	"github.com/KotFed0t/stock_screener/internal/model/dbModel"
	"github.com/KotFed0t/stock_screener/utils"
)

// upsertChunkSize keeps a single statement well below the postgres bind parameter limit.
const upsertChunkSize = 1000

// SaveTickers replaces the stored universe: listed rows are upserted and rows missing from listed are removed.
func (p *Postgres) SaveTickers(ctx context.Context, listed []model.ListedTicker) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.SaveTickers"

	slog.Debug("SaveTickers start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(listed)))
	defer func() {
		if err != nil {
			slog.Error("SaveTickers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("SaveTickers completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if len(listed) == 0 {
		return nil
	}

	dtUpdate := time.Now().UTC()

	return p.WithinTransaction(ctx, func(ctx context.Context) error {
		for start := 0; start < len(listed); start += upsertChunkSize {
			end := min(start+upsertChunkSize, len(listed))
			if err := p.upsertTickers(ctx, listed[start:end], dtUpdate); err != nil {
				return err
			}
		}

		_, err := p.txOrDb(ctx).ExecContext(ctx, `DELETE FROM tickers WHERE dt_update < $1`, dtUpdate)
		if err != nil {
			return fmt.Errorf("delete stale tickers: %w", err)
		}
		return nil
	})
}

func (p *Postgres) upsertTickers(ctx context.Context, listed []model.ListedTicker, dtUpdate time.Time) error {
	sb := strings.Builder{}
	args := make([]any, 0, len(listed)*3)

	sb.WriteString(`INSERT INTO tickers (ticker, exchange, dt_update) VALUES `)

	for i, l := range listed {
		args = append(args, l.Ticker, l.Exchange, dtUpdate)

		start := i*3 + 1
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d)", start, start+1, start+2))

		if i < len(listed)-1 {
			sb.WriteString(",")
		}
	}

	sb.WriteString(`
		ON CONFLICT (ticker) DO UPDATE SET
			exchange = EXCLUDED.exchange,
			dt_update = EXCLUDED.dt_update;
	`)

	if _, err := p.txOrDb(ctx).ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("upsert tickers: %w", err)
	}
	return nil
}

// GetTickers returns the stored universe ordered by ticker, or repository.ErrNotFound when it is empty.
func (p *Postgres) GetTickers(ctx context.Context) (listed []model.ListedTicker, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetTickers"
	query := `SELECT ticker, exchange, dt_update FROM tickers ORDER BY ticker`

	slog.Debug("GetTickers start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetTickers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetTickers completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(listed)))
		}
	}()

	var rows []dbModel.Ticker
	if err = p.txOrDb(ctx).SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}

	return dbConverter.ConvertTickers(rows), nil
}
