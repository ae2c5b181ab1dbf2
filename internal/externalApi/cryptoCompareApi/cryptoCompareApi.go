package cryptoCompareApi

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

// CryptoCompareApi is the first crypto spot source: fast, CORS friendly,
// quotes directly in EUR.
type CryptoCompareApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *CryptoCompareApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.CryptoCompare.Url)
	return &CryptoCompareApi{client: client}
}

func (a *CryptoCompareApi) Name() string { return "cryptocompare" }

func (a *CryptoCompareApi) CryptoPrice(ctx context.Context, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start CryptoCompareApi.CryptoPrice request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{"fsym": symbol, "tsyms": "EUR"}).
		Get("/data/price")

	if err != nil {
		slog.Error("error while dialing CryptoCompareApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if resp.IsError() {
		return model.Quote{}, externalApi.StatusToErr(resp.StatusCode())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("can't unmarshall CryptoCompareApi response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	raw, ok := body["EUR"]
	if !ok {
		// CryptoCompare answers 200 with a Response=Error payload for unknown symbols.
		return model.Quote{}, externalApi.ErrNotFound
	}

	var price float64
	if err := json.Unmarshal(raw, &price); err != nil || price == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	slog.Debug("CryptoCompareApi.CryptoPrice request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return model.Quote{
		Price:          decimal.NewFromFloat(price),
		Currency:       "EUR",
		InstrumentType: "CRYPTOCURRENCY",
	}, nil
}
