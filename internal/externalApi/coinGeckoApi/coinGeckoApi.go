package coinGeckoApi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/shopspring/decimal"
)

// Static symbol→id map for the common coins, to spare the rate-limited
// search endpoint.
var wellKnownIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"BNB":   "binancecoin",
}

// CoinGeckoApi is the last-resort crypto source: heavily rate limited and
// CORS-blocked, so every call goes through the relay chain. Pricing needs a
// symbol→id lookup first.
type CoinGeckoApi struct {
	proxy *externalApi.ProxyChain
	url   string
}

func New(cfg *config.Config, proxy *externalApi.ProxyChain) *CoinGeckoApi {
	return &CoinGeckoApi{proxy: proxy, url: cfg.API.CoinGecko.Url}
}

func (a *CoinGeckoApi) Name() string { return "coingecko" }

type searchResponse struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"coins"`
}

func (a *CoinGeckoApi) CryptoPrice(ctx context.Context, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start CoinGeckoApi.CryptoPrice request", slog.String("rqID", rqID), slog.String("symbol", symbol))

	id, ok := wellKnownIDs[strings.ToUpper(symbol)]
	if !ok {
		var err error
		id, err = a.lookupID(ctx, symbol)
		if err != nil {
			return model.Quote{}, err
		}
	}

	body, err := a.proxy.Get(ctx, fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=eur", a.url, url.QueryEscape(id)))
	if err != nil {
		slog.Error("error while dialing CoinGeckoApi", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, err
	}

	var prices map[string]map[string]float64
	if err := json.Unmarshal(body, &prices); err != nil {
		slog.Error("can't unmarshall CoinGeckoApi price response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return model.Quote{}, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	price, ok := prices[id]["eur"]
	if !ok || price == 0 {
		return model.Quote{}, externalApi.ErrNotFound
	}

	slog.Debug("CoinGeckoApi.CryptoPrice request complete", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return model.Quote{
		Price:          decimal.NewFromFloat(price),
		Currency:       "EUR",
		InstrumentType: "CRYPTOCURRENCY",
	}, nil
}

func (a *CoinGeckoApi) lookupID(ctx context.Context, symbol string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	body, err := a.proxy.Get(ctx, fmt.Sprintf("%s/api/v3/search?query=%s", a.url, url.QueryEscape(symbol)))
	if err != nil {
		return "", err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		slog.Error("can't unmarshall CoinGeckoApi search response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return "", fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	if len(res.Coins) == 0 {
		return "", externalApi.ErrNotFound
	}

	return res.Coins[0].ID, nil
}

// SearchCoins returns up to 10 ranked matches for autocomplete.
func (a *CoinGeckoApi) SearchCoins(ctx context.Context, query string) ([]model.SearchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	slog.Debug("start CoinGeckoApi.SearchCoins request", slog.String("rqID", rqID), slog.String("query", query))

	body, err := a.proxy.Get(ctx, fmt.Sprintf("%s/api/v3/search?query=%s", a.url, url.QueryEscape(query)))
	if err != nil {
		return nil, err
	}

	var res searchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		slog.Error("can't unmarshall CoinGeckoApi search response", slog.String("err", err.Error()), slog.String("rqID", rqID))
		return nil, fmt.Errorf("%w: %s", externalApi.ErrNetwork, err.Error())
	}

	results := make([]model.SearchResult, 0, 10)
	for _, coin := range res.Coins {
		if len(results) == 10 {
			break
		}
		results = append(results, model.SearchResult{
			Symbol: strings.ToUpper(coin.Symbol),
			Name:   coin.Name,
			Type:   "crypto",
		})
	}

	return results, nil
}
