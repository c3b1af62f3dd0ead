package tdaApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/internal/externalApi"
	"github.com/KotFed0t/stock_screener/internal/model/tdaModel"
	"github.com/KotFed0t/stock_screener/utils"
	"github.com/go-resty/resty/v2"
)

type TdaApi struct {
	client         *resty.Client
	apiKey         string
	instrumentsUrl string
	quotesUrl      string
	probeSymbol    string
}

func New(cfg *config.Config) *TdaApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout)
	return &TdaApi{
		client:         client,
		apiKey:         cfg.Tda.ApiKey,
		instrumentsUrl: cfg.Tda.InstrumentsUrl,
		quotesUrl:      cfg.Tda.QuotesUrl,
		probeSymbol:    cfg.Tda.ProbeSymbol,
	}
}

// GetFundamentals requests fundamentals for the tickers. Every ticker is sent as its own symbol parameter.
func (a *TdaApi) GetFundamentals(ctx context.Context, tickers []string) (tdaModel.FundamentalsResponse, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TdaApi.GetFundamentals"

	params := url.Values{
		"apikey":     []string{a.apiKey},
		"symbol":     tickers,
		"projection": []string{"fundamental"},
	}

	slog.Debug("start TdaApi.GetFundamentals request", slog.String("rqID", rqID), slog.Int("tickers", len(tickers)))

	body, err := a.get(ctx, op, a.instrumentsUrl, params)
	if err != nil {
		return nil, err
	}

	res := tdaModel.FundamentalsResponse{}
	err = json.Unmarshal(body, &res)
	if err != nil {
		slog.Error("can't unmarshall response into tdaModel.FundamentalsResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s: %w", externalApi.ErrInvalidResponse, op, err)
	}

	slog.Debug("TdaApi.GetFundamentals request complete", slog.String("rqID", rqID), slog.Int("entries", len(res)))

	return res, nil
}

// GetQuotes requests quotes for the tickers joined into one comma separated symbol parameter.
func (a *TdaApi) GetQuotes(ctx context.Context, tickers []string) (tdaModel.QuotesResponse, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TdaApi.GetQuotes"

	params := url.Values{
		"apikey": []string{a.apiKey},
		"symbol": []string{strings.Join(tickers, ",")},
	}

	slog.Debug("start TdaApi.GetQuotes request", slog.String("rqID", rqID), slog.Int("tickers", len(tickers)))

	body, err := a.get(ctx, op, a.quotesUrl, params)
	if err != nil {
		return nil, err
	}

	res := tdaModel.QuotesResponse{}
	err = json.Unmarshal(body, &res)
	if err != nil {
		slog.Error("can't unmarshall response into tdaModel.QuotesResponse", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s: %w", externalApi.ErrInvalidResponse, op, err)
	}

	slog.Debug("TdaApi.GetQuotes request complete", slog.String("rqID", rqID), slog.Int("entries", len(res)))

	return res, nil
}

// ValidateCredential issues one quotes request for the probe symbol.
// The provider answers an unknown key with a message mentioning "invalid".
func (a *TdaApi) ValidateCredential(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TdaApi.ValidateCredential"

	slog.Debug("start TdaApi.ValidateCredential request", slog.String("rqID", rqID))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{"apikey": a.apiKey, "symbol": a.probeSymbol}).
		Get(a.quotesUrl)
	if err != nil {
		slog.Error("error while dialing TdaApi", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		return fmt.Errorf("%w: %s: %w", externalApi.ErrTransport, op, err)
	}

	if strings.Contains(strings.ToLower(resp.String()), "invalid") {
		slog.Warn("credential rejected by TdaApi", slog.String("rqID", rqID), slog.Int("status", resp.StatusCode()))
		return externalApi.ErrInvalidCredential
	}

	if resp.IsError() {
		slog.Error("unexpected status from TdaApi", slog.Int("status", resp.StatusCode()), slog.String("rqID", rqID), slog.String("op", op))
		return fmt.Errorf("%w: %s: status %d", externalApi.ErrTransport, op, resp.StatusCode())
	}

	slog.Debug("TdaApi.ValidateCredential request complete", slog.String("rqID", rqID))

	return nil
}

func (a *TdaApi) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParamsFromValues(params).
		Get(endpoint)
	if err != nil {
		slog.Error("error while dialing TdaApi", slog.String("err", err.Error()), slog.String("rqID", rqID), slog.String("op", op))
		return nil, fmt.Errorf("%w: %s: %w", externalApi.ErrTransport, op, err)
	}

	if resp.IsError() {
		slog.Error(
			"unexpected status from TdaApi",
			slog.Int("status", resp.StatusCode()),
			slog.String("body", resp.String()),
			slog.String("rqID", rqID),
			slog.String("op", op),
		)
		return nil, fmt.Errorf("%w: %s: status %d", externalApi.ErrTransport, op, resp.StatusCode())
	}

	return resp.Body(), nil
}
