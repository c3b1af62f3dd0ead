package nasdaqApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/externalApi"
	"github.com/KotFed0t/stock_screener/internal/model/nasdaqModel"
	"github.com/KotFed0t/stock_screener/utils"
	"github.com/go-resty/resty/v2"
)

// the screener refuses requests without a browser-like user agent
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type NasdaqApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *NasdaqApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.Nasdaq.Url)
	return &NasdaqApi{client: client}
}

// GetTickers returns raw symbols listed on the exchange (nyse, nasdaq, amex).
func (a *NasdaqApi) GetTickers(ctx context.Context, exchange string) ([]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "NasdaqApi.GetTickers"
	url := "/api/screener/stocks"
	params := map[string]string{
		"tableonly": "true",
		"download":  "true",
		"exchange":  exchange,
	}

	slog.Debug("start NasdaqApi.GetTickers request", slog.String("rqID", rqID), slog.String("exchange", exchange))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		slog.Error("error while dialing NasdaqApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s: %w", externalApi.ErrTransport, op, err)
	}

	if resp.IsError() {
		slog.Error("unexpected status from NasdaqApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s: status %d", externalApi.ErrTransport, op, resp.StatusCode())
	}

	screener := nasdaqModel.ScreenerResponse{}
	err = json.Unmarshal(resp.Body(), &screener)
	if err != nil {
		slog.Error("can't unmarshall response into nasdaqModel.ScreenerResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s: %w", externalApi.ErrInvalidResponse, op, err)
	}

	if screener.Data == nil {
		slog.Error("empty data in NasdaqApi response", slog.String("rqID", rqID), slog.Int("rCode", screener.Status.RCode))
		return nil, fmt.Errorf("%w: %s: no data for exchange %s", externalApi.ErrInvalidResponse, op, exchange)
	}

	res := make([]string, 0, len(screener.Data.Rows))
	for _, row := range screener.Data.Rows {
		res = append(res, row.Symbol)
	}

	slog.Debug("NasdaqApi.GetTickers request complete", slog.String("rqID", rqID), slog.Int("tickers", len(res)))

	return res, nil
}
