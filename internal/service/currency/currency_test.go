package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeFxSource struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeFxSource) FxRate(_ context.Context, _ string) (decimal.Decimal, error) {
	return f.rate, f.err
}

func TestService_ToEur(t *testing.T) {
	s := New(&fakeFxSource{err: errors.New("unused")})

	t.Run("eur passes through", func(t *testing.T) {
		got, stale := s.ToEur(decimal.NewFromInt(100), "EUR")
		if stale {
			t.Error("EUR must never be stale")
		}
		if !got.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected 100, got %s", got)
		}
	})

	t.Run("empty currency treated as eur", func(t *testing.T) {
		got, stale := s.ToEur(decimal.NewFromInt(50), "")
		if stale || !got.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected 50 not stale, got %s stale=%v", got, stale)
		}
	})

	t.Run("known currency converts", func(t *testing.T) {
		got, stale := s.ToEur(decimal.NewFromInt(100), "USD")
		if stale {
			t.Error("USD has a static rate, must not be stale")
		}
		want := decimal.NewFromFloat(91.8)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("unknown currency passes through stale", func(t *testing.T) {
		got, stale := s.ToEur(decimal.NewFromInt(100), "XYZ")
		if !stale {
			t.Error("unknown currency must be flagged stale")
		}
		if !got.Equal(decimal.NewFromInt(100)) {
			t.Errorf("value must pass through unconverted, got %s", got)
		}
	})
}

func TestService_RefreshLive(t *testing.T) {
	t.Run("updates usd factor from live pair", func(t *testing.T) {
		// 1 EUR = 1.25 USD so 1 USD = 0.8 EUR
		s := New(&fakeFxSource{rate: decimal.NewFromFloat(1.25)})

		if err := s.RefreshLive(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		got, stale := s.ToEur(decimal.NewFromInt(100), "USD")
		if stale {
			t.Error("must not be stale after live refresh")
		}
		want := decimal.NewFromInt(80)
		if !got.Equal(want) {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("failure keeps static rate", func(t *testing.T) {
		s := New(&fakeFxSource{err: errors.New("network down")})

		if err := s.RefreshLive(context.Background()); err == nil {
			t.Error("expected error to propagate")
		}

		got, _ := s.ToEur(decimal.NewFromInt(100), "USD")
		want := decimal.NewFromFloat(91.8)
		if !got.Equal(want) {
			t.Errorf("static rate must survive failed refresh, got %s", got)
		}
	})

	t.Run("zero rate kept out", func(t *testing.T) {
		s := New(&fakeFxSource{rate: decimal.Zero})

		if err := s.RefreshLive(context.Background()); err != nil {
			t.Fatalf("zero rate is not an error: %v", err)
		}

		got, _ := s.ToEur(decimal.NewFromInt(100), "USD")
		if !got.Equal(decimal.NewFromFloat(91.8)) {
			t.Errorf("zero live rate must not replace static rate, got %s", got)
		}
	})
}

func TestService_FromEur(t *testing.T) {
	s := New(&fakeFxSource{})

	got, stale := s.FromEur(decimal.NewFromFloat(91.8), "USD")
	if stale {
		t.Error("USD must not be stale")
	}
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected 100, got %s", got)
	}

	got, stale = s.FromEur(decimal.NewFromInt(42), "XYZ")
	if !stale || !got.Equal(decimal.NewFromInt(42)) {
		t.Errorf("unknown currency must pass through stale, got %s stale=%v", got, stale)
	}
}
