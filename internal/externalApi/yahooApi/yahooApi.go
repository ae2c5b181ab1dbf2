package yahooApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/shopspring/decimal"
)

// YahooApi is the credential-free equity source. The chart endpoint returns
// price plus native listing currency and exchange metadata; the search
// endpoint fills in long name and instrument type. Both are CORS-blocked for
// third parties, so calls go through the relay chain. FX pairs are quoted as
// synthetic tickers (e.g. EURUSD=X).
type YahooApi struct {
	proxy *externalApi.ProxyChain
	url   string
}

func New(cfg *config.Config, proxy *externalApi.ProxyChain) *YahooApi {
	return &YahooApi{proxy: proxy, url: cfg.API.Yahoo.Url}
}

func (a *YahooApi) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency             string  `json:"currency"`
				Symbol               string  `json:"symbol"`
				ExchangeName         string  `json:"exchangeName"`
				InstrumentType       string  `json:"instrumentType"`
				ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
				RegularMarketPrice   float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

func (a *YahooApi) StockPrice(ctx context.Context, ticker string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start YahooApi.StockPrice request", slog.String("rqID", rqID), slog.String("ticker", ticker))

	quote, err := a.fetchChart(ctx, ticker)
	if err != nil {
		return model.Quote{}, err
	}

	// Long name and instrument type come from the search endpoint; losing
	// them is not worth failing a priced quote.
	if longName, quoteType, err := a.fetchNameAndType(ctx, ticker); err == nil {
		quote.LongName = longName
		if quoteType != "" {
			quote.InstrumentType = quoteType
		}
	} else {
		slog.Warn("YahooApi metadata search failed, using ticker as name", slog.String("rqID", rqID), slog.String("err", err.Error()))
		quote.LongName = ticker
	}

	slog.Debug("YahooApi.StockPrice request complete", slog.String("rqID", rqID), slog.String("ticker", ticker))

	return quote, nil
}

// FxRate quotes a currency pair like "EURUSD=X" through the chart endpoint.
func (a *YahooApi) FxRate(ctx context.Context, pair string) (decimal.Decimal, error) {
	quote, err := a.fetchChart(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.Price, nil
}

func (a *YahooApi) fetchChart(ctx context.Context, ticker string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	target := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", a.url, url.PathEscape(ticker))
	body, err := a.proxy.Get(ctx, target)
	if err != nil {
		slog.Error("error while dialing YahooApi chart", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, err
	}

	var res chartResponse
	if err := json.Unmarshal(body, &res); err != nil {
		slog.Error("can't unmarshall YahooApi chart response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if res.Chart.Error != nil || len(res.Chart.Result) == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	meta := res.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	return model.Quote{
		Price:            decimal.NewFromFloat(meta.RegularMarketPrice),
		Currency:         meta.Currency,
		InstrumentType:   meta.InstrumentType,
		ExchangeTimezone: meta.ExchangeTimezoneName,
		ExchangeName:     meta.ExchangeName,
	}, nil
}

func (a *YahooApi) fetchNameAndType(ctx context.Context, ticker string) (longName, quoteType string, err error) {
	target := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=1&newsCount=0", a.url, url.QueryEscape(ticker))
	body, err := a.proxy.Get(ctx, target)
	if err != nil {
		return "", "", err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", "", fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if len(res.Quotes) == 0 {
		return "", "", externalApi.ErrNotFound
	}

	q := res.Quotes[0]
	longName = q.LongName
	if longName == "" {
		longName = q.ShortName
	}
	if longName == "" {
		longName = q.Symbol
	}
	return longName, q.QuoteType, nil
}
