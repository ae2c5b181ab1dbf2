package finnhubApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// FinnhubApi is the credentialed equity source. Its free tier reliably covers
// only primary-market US tickers; prices carry no currency field, USD is the
// convention. The token is caller-supplied per request (it lives in settings,
// not in the adapter).
type FinnhubApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *FinnhubApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Finnhub.Url)
	return &FinnhubApi{client: client}
}

func (a *FinnhubApi) Name() string { return "finnhub" }

type quoteResponse struct {
	Current float64 `json:"c"`
}

type searchResponse struct {
	Result []struct {
		Symbol      string `json:"symbol"`
		Description string `json:"description"`
		Type        string `json:"type"`
	} `json:"result"`
}

func (a *FinnhubApi) StockPrice(ctx context.Context, ticker, token string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start FinnhubApi.StockPrice request", slog.String("rqID", rqID), slog.String("ticker", ticker))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{"symbol": ticker, "token": token}).
		Get("/api/v1/quote")

	if err != nil {
		slog.Error("error while dialing FinnhubApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if resp.IsError() {
		return model.Quote{}, externalApi.StatusToErr(resp.StatusCode())
	}

	var body quoteResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("can't unmarshall FinnhubApi response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	// Finnhub answers c=0 for symbols outside its coverage.
	if body.Current == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	slog.Debug("FinnhubApi.StockPrice request complete", slog.String("rqID", rqID), slog.String("ticker", ticker))

	return model.Quote{
		Price:    decimal.NewFromFloat(body.Current),
		Currency: "USD",
	}, nil
}

// SearchStocks returns up to 10 ranked matches for autocomplete.
func (a *FinnhubApi) SearchStocks(ctx context.Context, query, token string) ([]model.SearchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start FinnhubApi.SearchStocks request", slog.String("rqID", rqID), slog.String("query", query))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{"q": query, "token": token}).
		Get("/api/v1/search")

	if err != nil {
		slog.Error("error while dialing FinnhubApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if resp.IsError() {
		return nil, externalApi.StatusToErr(resp.StatusCode())
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("can't unmarshall FinnhubApi search response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	results := make([]model.SearchResult, 0, 10)
	for _, item := range body.Result {
		if len(results) == 10 {
			break
		}
		results = append(results, model.SearchResult{
			Symbol: item.Symbol,
			Name:   item.Description,
			Type:   "stock",
		})
	}

	return results, nil
}
