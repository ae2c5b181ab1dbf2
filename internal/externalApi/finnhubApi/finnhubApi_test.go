package finnhubApi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi"
	"github.com/shopspring/decimal"
)

func newTestApi(srv *httptest.Server) *FinnhubApi {
	cfg := &config.Config{}
	cfg.API.Finnhub.Url = srv.URL
	return New(cfg)
}

func TestFinnhubApi_StockPrice(t *testing.T) {
	t.Run("quotes imply usd", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("symbol"); got != "AAPL" {
				t.Errorf("expected symbol AAPL, got %q", got)
			}
			if got := r.URL.Query().Get("token"); got != "tok" {
				t.Errorf("expected token passed through, got %q", got)
			}
			_, _ = w.Write([]byte(`{"c": 189.5, "h": 190, "l": 188}`))
		}))
		defer srv.Close()

		quote, err := newTestApi(srv).StockPrice(context.Background(), "AAPL", "tok")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !quote.Price.Equal(decimal.NewFromFloat(189.5)) {
			t.Errorf("expected 189.5, got %s", quote.Price)
		}
		if quote.Currency != "USD" {
			t.Errorf("expected implied USD, got %q", quote.Currency)
		}
	})

	t.Run("zero price means unknown symbol", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"c": 0}`))
		}))
		defer srv.Close()

		_, err := newTestApi(srv).StockPrice(context.Background(), "NOPE.PA", "tok")
		if !errors.Is(err, externalApi.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("403 maps to forbidden", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, err := newTestApi(srv).StockPrice(context.Background(), "AAPL", "badtok")
		if !errors.Is(err, externalApi.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestFinnhubApi_SearchStocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result": [
			{"symbol": "AAPL", "description": "Apple Inc", "type": "Common Stock"},
			{"symbol": "AAPL.MX", "description": "Apple Inc Mexico", "type": "Common Stock"}
		]}`))
	}))
	defer srv.Close()

	results, err := newTestApi(srv).SearchStocks(context.Background(), "apple", "tok")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Symbol != "AAPL" || results[0].Name != "Apple Inc" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}
