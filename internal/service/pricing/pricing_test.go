package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

type fakeCryptoSource struct {
	name   string
	quotes map[string]model.Quote
	err    error
	calls  int
}

func (f *fakeCryptoSource) Name() string { return f.name }

func (f *fakeCryptoSource) CryptoPrice(_ context.Context, symbol string) (model.Quote, error) {
	f.calls++
	if f.err != nil {
		return model.Quote{}, f.err
	}
	quote, ok := f.quotes[symbol]
	if !ok {
		return model.Quote{}, errors.New("not found")
	}
	return quote, nil
}

type fakeEquitySource struct {
	name   string
	quotes map[string]model.Quote
	err    error
	calls  int
}

func (f *fakeEquitySource) Name() string { return f.name }

func (f *fakeEquitySource) StockPrice(_ context.Context, ticker string) (model.Quote, error) {
	f.calls++
	if f.err != nil {
		return model.Quote{}, f.err
	}
	quote, ok := f.quotes[ticker]
	if !ok {
		return model.Quote{}, errors.New("not found")
	}
	return quote, nil
}

type fakeCredentialedSource struct {
	fakeEquitySource
	lastToken string
}

func (f *fakeCredentialedSource) StockPrice(ctx context.Context, ticker, token string) (model.Quote, error) {
	f.lastToken = token
	return f.fakeEquitySource.StockPrice(ctx, ticker)
}

func eurQuote(price int64) model.Quote {
	return model.Quote{Price: decimal.NewFromInt(price), Currency: "EUR"}
}

func cryptoHolding(id, symbol string) model.CryptoHolding {
	return model.CryptoHolding{
		HoldingBase: model.HoldingBase{ID: id, Name: symbol},
		Symbol:      symbol,
		Quantity:    decimal.NewFromInt(1),
	}
}

func stockHolding(id, ticker string) model.StockHolding {
	return model.StockHolding{
		HoldingBase: model.HoldingBase{ID: id, Name: ticker},
		Ticker:      ticker,
		Quantity:    decimal.NewFromInt(1),
		Listed:      true,
	}
}

func newTestResolver(cryptos []CryptoSource, credentialed *fakeCredentialedSource, free *fakeEquitySource, token string) *Resolver {
	return NewResolver(
		NewQuoteCache(10*time.Second),
		cryptos,
		credentialed,
		free,
		func() string { return token },
	)
}

func TestResolver_CryptoFallbackOrdering(t *testing.T) {
	first := &fakeCryptoSource{name: "first", err: errors.New("down")}
	second := &fakeCryptoSource{name: "second", err: errors.New("rate limited")}
	third := &fakeCryptoSource{name: "third", quotes: map[string]model.Quote{"BTC": eurQuote(60000)}}

	r := newTestResolver([]CryptoSource{first, second, third}, &fakeCredentialedSource{}, &fakeEquitySource{}, "")

	results := r.ResolveAll(context.Background(), []model.Holding{cryptoHolding("h1", "BTC")})

	res := results["h1"]
	if res.Err != nil {
		t.Fatalf("expected success from third source, got err %v", res.Err)
	}
	if !res.Quote.Price.Equal(decimal.NewFromInt(60000)) {
		t.Errorf("expected 60000, got %s", res.Quote.Price)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("expected each source tried once, got %d/%d/%d", first.calls, second.calls, third.calls)
	}
}

func TestResolver_CacheSuppressesRefetch(t *testing.T) {
	source := &fakeCryptoSource{name: "only", quotes: map[string]model.Quote{"ETH": eurQuote(3000)}}
	r := newTestResolver([]CryptoSource{source}, &fakeCredentialedSource{}, &fakeEquitySource{}, "")

	holdings := []model.Holding{cryptoHolding("h1", "ETH"), cryptoHolding("h2", "ETH")}

	r.ResolveAll(context.Background(), holdings)
	if source.calls != 1 {
		t.Fatalf("expected one fetch for duplicate symbols, got %d", source.calls)
	}

	r.ResolveAll(context.Background(), holdings)
	if source.calls != 1 {
		t.Errorf("expected cache hit on second pass, got %d calls", source.calls)
	}
}

func TestResolver_PartialFailureIsolation(t *testing.T) {
	source := &fakeCryptoSource{name: "only", quotes: map[string]model.Quote{"BTC": eurQuote(60000)}}
	r := newTestResolver([]CryptoSource{source}, &fakeCredentialedSource{}, &fakeEquitySource{}, "")

	results := r.ResolveAll(context.Background(), []model.Holding{
		cryptoHolding("ok", "BTC"),
		cryptoHolding("bad", "UNKNOWNCOIN"),
	})

	if results["ok"].Err != nil {
		t.Errorf("healthy symbol should resolve, got %v", results["ok"].Err)
	}
	if results["bad"].Err == nil {
		t.Error("unknown symbol should carry its error")
	}
}

func TestResolver_EquityOrdering(t *testing.T) {
	t.Run("suffixed ticker goes credential-free first", func(t *testing.T) {
		free := &fakeEquitySource{name: "free", quotes: map[string]model.Quote{"CW8.PA": eurQuote(500)}}
		credentialed := &fakeCredentialedSource{fakeEquitySource: fakeEquitySource{name: "cred"}}
		r := newTestResolver(nil, credentialed, free, "token")

		results := r.ResolveAll(context.Background(), []model.Holding{stockHolding("h1", "CW8.PA")})

		if results["h1"].Err != nil {
			t.Fatalf("unexpected err: %v", results["h1"].Err)
		}
		if credentialed.calls != 0 {
			t.Errorf("credentialed source should not be tried when free succeeds, got %d calls", credentialed.calls)
		}
	})

	t.Run("plain ticker with token goes credentialed first", func(t *testing.T) {
		free := &fakeEquitySource{name: "free", quotes: map[string]model.Quote{"AAPL": eurQuote(190)}}
		credentialed := &fakeCredentialedSource{fakeEquitySource: fakeEquitySource{name: "cred", quotes: map[string]model.Quote{"AAPL": {Price: decimal.NewFromInt(189), Currency: "USD"}}}}
		r := newTestResolver(nil, credentialed, free, "tok123")

		results := r.ResolveAll(context.Background(), []model.Holding{stockHolding("h1", "AAPL")})

		if results["h1"].Err != nil {
			t.Fatalf("unexpected err: %v", results["h1"].Err)
		}
		if free.calls != 0 {
			t.Errorf("free source should not be tried when credentialed succeeds, got %d calls", free.calls)
		}
		if credentialed.lastToken != "tok123" {
			t.Errorf("expected token passed through, got %q", credentialed.lastToken)
		}
	})

	t.Run("no token skips credentialed entirely", func(t *testing.T) {
		free := &fakeEquitySource{name: "free", err: errors.New("down")}
		credentialed := &fakeCredentialedSource{fakeEquitySource: fakeEquitySource{name: "cred"}}
		r := newTestResolver(nil, credentialed, free, "")

		results := r.ResolveAll(context.Background(), []model.Holding{stockHolding("h1", "AAPL")})

		if results["h1"].Err == nil {
			t.Error("expected error when only source is down")
		}
		if credentialed.calls != 0 {
			t.Errorf("credentialed source must not be called without a token, got %d calls", credentialed.calls)
		}
	})

	t.Run("credentialed failure falls back to free", func(t *testing.T) {
		free := &fakeEquitySource{name: "free", quotes: map[string]model.Quote{"AAPL": eurQuote(190)}}
		credentialed := &fakeCredentialedSource{fakeEquitySource: fakeEquitySource{name: "cred", err: errors.New("403")}}
		r := newTestResolver(nil, credentialed, free, "tok")

		results := r.ResolveAll(context.Background(), []model.Holding{stockHolding("h1", "AAPL")})

		if results["h1"].Err != nil {
			t.Fatalf("expected fallback success, got %v", results["h1"].Err)
		}
		if free.calls != 1 {
			t.Errorf("expected free source tried once, got %d", free.calls)
		}
	})
}

func TestSignature(t *testing.T) {
	btc := cryptoHolding("a", "BTC")
	eth := cryptoHolding("b", "ETH")
	aapl := stockHolding("c", "AAPL")

	t.Run("order insensitive", func(t *testing.T) {
		s1 := Signature([]model.Holding{btc, eth, aapl})
		s2 := Signature([]model.Holding{aapl, btc, eth})
		if s1 != s2 {
			t.Errorf("signatures differ: %q vs %q", s1, s2)
		}
	})

	t.Run("record ids irrelevant", func(t *testing.T) {
		dup := cryptoHolding("other-id", "BTC")
		if Signature([]model.Holding{btc}) != Signature([]model.Holding{dup}) {
			t.Error("same symbol under different ids should produce same signature")
		}
	})

	t.Run("unpriced holdings excluded", func(t *testing.T) {
		savings := model.SavingsAccount{HoldingBase: model.HoldingBase{ID: "s", Name: "Livret A"}}
		unlisted := stockHolding("u", "PRIVATECO")
		unlisted.Listed = false

		if got := Signature([]model.Holding{savings, unlisted}); got != "" {
			t.Errorf("expected empty signature, got %q", got)
		}
	})
}
