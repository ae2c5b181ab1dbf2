package coinbaseApi

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

// CoinbaseApi is the second crypto spot source, quoting in USD.
type CoinbaseApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *CoinbaseApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Coinbase.Url)
	return &CoinbaseApi{client: client}
}

func (a *CoinbaseApi) Name() string { return "coinbase" }

type spotResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

func (a *CoinbaseApi) CryptoPrice(ctx context.Context, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start CoinbaseApi.CryptoPrice request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(fmt.Sprintf("/v2/prices/%s-USD/spot", symbol))

	if err != nil {
		slog.Error("error while dialing CoinbaseApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if resp.IsError() {
		return model.Quote{}, externalApi.StatusToErr(resp.StatusCode())
	}

	var body spotResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("can't unmarshall CoinbaseApi response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if body.Data.Amount == "" {
		return model.Quote{}, externalApi.ErrNotFound
	}

	price, err := decimal.NewFromString(body.Data.Amount)
	if err != nil {
		slog.Error("invalid amount in CoinbaseApi response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, externalApi.ErrNotFound
	}

	slog.Debug("CoinbaseApi.CryptoPrice request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return model.Quote{
		Price:          price,
		Currency:       "USD",
		InstrumentType: "CRYPTOCURRENCY",
	}, nil
}
