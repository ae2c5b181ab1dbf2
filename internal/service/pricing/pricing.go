package pricing

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
)

// CryptoSource is one crypto spot-price provider; sources are tried in slice
// order, first success wins.
type CryptoSource interface {
	Name() string
	CryptoPrice(ctx context.Context, symbol string) (model.Quote, error)
}

// CredentialedEquitySource needs a caller-supplied token (Finnhub).
type CredentialedEquitySource interface {
	Name() string
	StockPrice(ctx context.Context, ticker, token string) (model.Quote, error)
}

// EquitySource works without a credential (Yahoo chart endpoint).
type EquitySource interface {
	Name() string
	StockPrice(ctx context.Context, ticker string) (model.Quote, error)
}

// Resolver is the price resolution engine: it partitions holdings by asset
// class, orders sources per ticker shape, deduplicates lookups through the
// cache and keeps the last known result per holding. Results merge by
// per-holding overwrite, so overlapping passes are safe.
type Resolver struct {
	cache         *QuoteCache
	cryptoSources []CryptoSource
	credentialed  CredentialedEquitySource
	free          EquitySource
	token         func() string

	mu      sync.RWMutex
	results map[string]model.PriceResult
}

func NewResolver(
	cache *QuoteCache,
	cryptoSources []CryptoSource,
	credentialed CredentialedEquitySource,
	free EquitySource,
	token func() string,
) *Resolver {
	return &Resolver{
		cache:         cache,
		cryptoSources: cryptoSources,
		credentialed:  credentialed,
		free:          free,
		token:         token,
		results:       make(map[string]model.PriceResult),
	}
}

// Signature identifies the holdings set by its priced symbols, not record
// ids, so unrelated edits don't force refetches.
func Signature(holdings []model.Holding) string {
	keys := make([]string, 0, len(holdings))
	seen := make(map[string]struct{})
	for _, h := range holdings {
		key, ok := lookupKey(h)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// ResolveAll runs one resolution pass: every unique symbol is fetched
// concurrently, failures stay per-holding. The returned map is keyed by
// holding ID and covers only priced holdings (savings, current accounts and
// real estate use their stored value directly).
func (r *Resolver) ResolveAll(ctx context.Context, holdings []model.Holding) map[string]model.PriceResult {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Resolver.ResolveAll"

	slog.Debug("ResolveAll start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))

	lookups := make(map[string]func(context.Context) (model.Quote, error))
	holdingKeys := make(map[string]string)

	for _, h := range holdings {
		key, ok := lookupKey(h)
		if !ok {
			continue
		}
		holdingKeys[h.Base().ID] = key

		if _, exists := lookups[key]; exists {
			continue
		}

		switch v := h.(type) {
		case model.CryptoHolding:
			symbol := normalizeSymbol(v.Symbol)
			lookups[key] = func(ctx context.Context) (model.Quote, error) {
				return r.cryptoQuote(ctx, key, symbol)
			}
		case model.StockHolding:
			ticker := normalizeSymbol(v.Ticker)
			lookups[key] = func(ctx context.Context) (model.Quote, error) {
				return r.equityQuote(ctx, key, ticker)
			}
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	fetched := make(map[string]model.PriceResult, len(lookups))

	for key, fetch := range lookups {
		wg.Add(1)
		go func(key string, fetch func(context.Context) (model.Quote, error)) {
			defer wg.Done()
			quote, err := fetch(ctx)
			mu.Lock()
			fetched[key] = model.PriceResult{Quote: quote, Err: err}
			mu.Unlock()
		}(key, fetch)
	}
	wg.Wait()

	out := make(map[string]model.PriceResult, len(holdingKeys))
	r.mu.Lock()
	for id, key := range holdingKeys {
		res := fetched[key]
		r.results[id] = res
		out[id] = res
	}
	r.mu.Unlock()

	slog.Debug("ResolveAll finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int("lookups", len(lookups)))

	return out
}

// Results returns the last known per-holding results (merged across passes).
func (r *Resolver) Results() map[string]model.PriceResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]model.PriceResult, len(r.results))
	for id, res := range r.results {
		out[id] = res
	}
	return out
}

func (r *Resolver) cryptoQuote(ctx context.Context, cacheKey, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if quote, ok := r.cache.Get(cacheKey); ok {
		return quote, nil
	}

	var lastErr error
	for _, source := range r.cryptoSources {
		quote, err := source.CryptoPrice(ctx, symbol)
		if err == nil {
			r.cache.Set(cacheKey, quote)
			return quote, nil
		}
		slog.Warn("crypto source failed, trying next", slog.String("rqID", rqID), slog.String("source", source.Name()), slog.String("symbol", symbol), slog.String("err", err.Error()))
		lastErr = err
	}

	return model.Quote{}, lastErr
}

// Equity ordering: the credentialed provider's free tier reliably covers only
// primary-market tickers, the credential-free one covers international
// suffixed tickers better. So suffixed tickers (or no credential) go
// credential-free first.
func (r *Resolver) equityQuote(ctx context.Context, cacheKey, ticker string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if quote, ok := r.cache.Get(cacheKey); ok {
		return quote, nil
	}

	token := strings.TrimSpace(r.token())
	hasSuffix := strings.Contains(ticker, ".")

	var lastErr error

	tryFree := func() (model.Quote, bool) {
		quote, err := r.free.StockPrice(ctx, ticker)
		if err == nil {
			r.cache.Set(cacheKey, quote)
			return quote, true
		}
		slog.Warn("equity source failed", slog.String("rqID", rqID), slog.String("source", r.free.Name()), slog.String("ticker", ticker), slog.String("err", err.Error()))
		lastErr = err
		return model.Quote{}, false
	}

	tryCredentialed := func() (model.Quote, bool) {
		quote, err := r.credentialed.StockPrice(ctx, ticker, token)
		if err == nil {
			r.cache.Set(cacheKey, quote)
			return quote, true
		}
		slog.Warn("equity source failed", slog.String("rqID", rqID), slog.String("source", r.credentialed.Name()), slog.String("ticker", ticker), slog.String("err", err.Error()))
		lastErr = err
		return model.Quote{}, false
	}

	if hasSuffix || token == "" {
		if quote, ok := tryFree(); ok {
			return quote, nil
		}
		if token != "" {
			if quote, ok := tryCredentialed(); ok {
				return quote, nil
			}
		}
		return model.Quote{}, lastErr
	}

	if quote, ok := tryCredentialed(); ok {
		return quote, nil
	}
	if quote, ok := tryFree(); ok {
		return quote, nil
	}
	return model.Quote{}, lastErr
}

// lookupKey reports whether a holding needs live pricing and under which
// cache key. Unlisted stocks are manually priced and skipped entirely.
func lookupKey(h model.Holding) (string, bool) {
	switch v := h.(type) {
	case model.CryptoHolding:
		symbol := normalizeSymbol(v.Symbol)
		if symbol == "" {
			return "", false
		}
		return "crypto_" + symbol, true
	case model.StockHolding:
		ticker := normalizeSymbol(v.Ticker)
		if ticker == "" || !v.Listed {
			return "", false
		}
		return "stock_" + ticker, true
	case model.SavingsAccount, model.CurrentAccount, model.RealEstateHolding:
		return "", false
	default:
		return "", false
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
