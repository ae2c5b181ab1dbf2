package pricing

import (
	"testing"
	"time"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

func TestQuoteCache(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewQuoteCacheWithClock(10*time.Second, clock)
	quote := model.Quote{Price: decimal.NewFromInt(42), Currency: "EUR"}

	t.Run("miss on empty cache", func(t *testing.T) {
		if _, ok := cache.Get("crypto_BTC"); ok {
			t.Error("expected miss on empty cache")
		}
	})

	t.Run("hit within ttl", func(t *testing.T) {
		cache.Set("crypto_BTC", quote)
		now = now.Add(9 * time.Second)

		got, ok := cache.Get("crypto_BTC")
		if !ok {
			t.Fatal("expected hit within ttl")
		}
		if !got.Price.Equal(quote.Price) {
			t.Errorf("expected price %s, got %s", quote.Price, got.Price)
		}
	})

	t.Run("miss once ttl elapsed", func(t *testing.T) {
		now = now.Add(time.Second)
		if _, ok := cache.Get("crypto_BTC"); ok {
			t.Error("expected miss at exactly ttl")
		}
	})

	t.Run("set refreshes expiry", func(t *testing.T) {
		cache.Set("crypto_BTC", quote)
		now = now.Add(5 * time.Second)
		if _, ok := cache.Get("crypto_BTC"); !ok {
			t.Error("expected hit after refresh")
		}
	})
}
