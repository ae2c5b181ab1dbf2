package cryptoCompareApi

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

func newTestApi(srv *httptest.Server) *CryptoCompareApi {
	cfg := &config.Config{}
	cfg.API.CryptoCompare.Url = srv.URL
	return New(cfg)
}

func TestCryptoCompareApi_CryptoPrice(t *testing.T) {
	t.Run("quotes in eur", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("fsym"); got != "BTC" {
				t.Errorf("expected fsym BTC, got %q", got)
			}
			if got := r.URL.Query().Get("tsyms"); got != "EUR" {
				t.Errorf("expected tsyms EUR, got %q", got)
			}
			_, _ = w.Write([]byte(`{"EUR": 60123.45}`))
		}))
		defer srv.Close()

		quote, err := newTestApi(srv).CryptoPrice(context.Background(), "BTC")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !quote.Price.Equal(decimal.NewFromFloat(60123.45)) {
			t.Errorf("expected 60123.45, got %s", quote.Price)
		}
		if quote.Currency != "EUR" {
			t.Errorf("expected EUR, got %q", quote.Currency)
		}
	})

	t.Run("error payload without eur key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"Response": "Error", "Message": "no data for symbol"}`))
		}))
		defer srv.Close()

		_, err := newTestApi(srv).CryptoPrice(context.Background(), "NOPE")
		if !errors.Is(err, externalApi.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newTestApi(srv).CryptoPrice(context.Background(), "BTC")
		if !errors.Is(err, externalApi.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})
}
