package patrimoineService

import (
	"context"
	"errors"
	"testing"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service"
	"github.com/shopspring/decimal"
)

type fakeRepo struct {
	holdings []model.Holding
	inserted []model.Holding
}

func (f *fakeRepo) RegUser(_ context.Context, _ int64) (int64, error)   { return 1, nil }
func (f *fakeRepo) GetUserID(_ context.Context, _ int64) (int64, error) { return 1, nil }
func (f *fakeRepo) GetHoldings(_ context.Context, _ int64) ([]model.Holding, error) {
	return f.holdings, nil
}
func (f *fakeRepo) GetAllHoldings(_ context.Context) ([]model.Holding, error) {
	return f.holdings, nil
}
func (f *fakeRepo) InsertHolding(_ context.Context, _ int64, h model.Holding) error {
	f.inserted = append(f.inserted, h)
	return nil
}
func (f *fakeRepo) UpdateHoldingValue(_ context.Context, _ string, _ decimal.Decimal) error {
	return nil
}
func (f *fakeRepo) DeleteHolding(_ context.Context, _ string, _ int64) error { return nil }
func (f *fakeRepo) GetReportingCurrency(_ context.Context, _ int64) (string, error) {
	return "", nil
}
func (f *fakeRepo) SetReportingCurrency(_ context.Context, _ int64, _ string) error { return nil }

type fakeResolver struct {
	passes  int
	results map[string]model.PriceResult
}

func (f *fakeResolver) ResolveAll(_ context.Context, _ []model.Holding) map[string]model.PriceResult {
	f.passes++
	return f.results
}

func (f *fakeResolver) Results() map[string]model.PriceResult { return f.results }

type fakeFullRates struct{ fakeRates }

func (f *fakeFullRates) FromEur(valueInEur decimal.Decimal, currencyCode string) (decimal.Decimal, bool) {
	if currencyCode == "" || currencyCode == "EUR" {
		return valueInEur, false
	}
	rate, ok := f.toEur[currencyCode]
	if !ok {
		return valueInEur, true
	}
	return valueInEur.Div(rate), false
}

func (f *fakeFullRates) RefreshLive(_ context.Context) error { return nil }

func (f *fakeFullRates) Supported() []string { return []string{"EUR", "USD"} }

func newTestService(repo *fakeRepo, resolver *fakeResolver) *PatrimoineService {
	cfg := &config.Config{ReportingCurrency: "EUR"}
	rates := &fakeFullRates{fakeRates: *newFakeRates()}
	return New(cfg, repo, resolver, rates, nil, nil, nil, nil)
}

func TestAddHolding(t *testing.T) {
	t.Run("savings with french decimal input", func(t *testing.T) {
		repo := &fakeRepo{}
		s := newTestService(repo, &fakeResolver{})

		h, err := s.AddHolding(context.Background(), 42, model.PendingHolding{
			Category:     model.CategorySavings,
			Name:         "Livret A",
			SubGroup:     "Ma Banque",
			ValueInEur:   "1 500,50",
			InterestRate: "3",
		})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		savings, ok := h.(model.SavingsAccount)
		if !ok {
			t.Fatalf("expected SavingsAccount, got %T", h)
		}
		if !savings.ValueInEur.Equal(decimal.NewFromFloat(1500.50)) {
			t.Errorf("expected 1500.50, got %s", savings.ValueInEur)
		}
		if savings.ID == "" {
			t.Error("expected generated id")
		}
		if len(repo.inserted) != 1 {
			t.Errorf("expected one insert, got %d", len(repo.inserted))
		}
	})

	t.Run("current account converts to eur snapshot", func(t *testing.T) {
		repo := &fakeRepo{}
		s := newTestService(repo, &fakeResolver{})

		h, err := s.AddHolding(context.Background(), 42, model.PendingHolding{
			Category:      model.CategoryCurrentAccount,
			Name:          "Compte USD",
			Currency:      "usd",
			OriginalValue: "100",
		})
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		account := h.(model.CurrentAccount)
		if account.Currency != "USD" {
			t.Errorf("currency must be upper-cased, got %q", account.Currency)
		}
		if !account.ValueInEur.Equal(decimal.NewFromInt(92)) {
			t.Errorf("expected 92 EUR snapshot, got %s", account.ValueInEur)
		}
	})

	t.Run("invalid quantity rejected before persistence", func(t *testing.T) {
		repo := &fakeRepo{}
		s := newTestService(repo, &fakeResolver{})

		_, err := s.AddHolding(context.Background(), 42, model.PendingHolding{
			Category: model.CategoryCrypto,
			Name:     "Bitcoin",
			Symbol:   "BTC",
			Quantity: "beaucoup",
		})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if len(repo.inserted) != 0 {
			t.Error("nothing must be persisted on invalid input")
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		s := newTestService(&fakeRepo{}, &fakeResolver{})
		_, err := s.AddHolding(context.Background(), 42, model.PendingHolding{Category: model.CategorySavings, ValueInEur: "10"})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestGetPatrimoine_ResolutionTriggering(t *testing.T) {
	btc := model.CryptoHolding{
		HoldingBase:   model.HoldingBase{ID: "c1", Name: "BTC", ValueInEur: decimal.NewFromInt(500)},
		Symbol:        "BTC",
		Quantity:      decimal.NewFromInt(1),
		PurchasePrice: decimal.NewFromInt(400),
	}

	repo := &fakeRepo{holdings: []model.Holding{btc}}
	resolver := &fakeResolver{results: map[string]model.PriceResult{
		"c1": {Quote: model.Quote{Price: decimal.NewFromInt(600), Currency: "EUR"}},
	}}
	s := newTestService(repo, resolver)

	summary, err := s.GetPatrimoine(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resolver.passes != 1 {
		t.Fatalf("expected one resolution pass, got %d", resolver.passes)
	}
	if !summary.TotalValue.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected 600, got %s", summary.TotalValue)
	}

	// Same symbol set: no new pass.
	if _, err := s.GetPatrimoine(context.Background(), 42); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resolver.passes != 1 {
		t.Errorf("unchanged holdings must reuse results, got %d passes", resolver.passes)
	}

	// New symbol appears: a pass is forced.
	eth := model.CryptoHolding{
		HoldingBase: model.HoldingBase{ID: "c2", Name: "ETH", ValueInEur: decimal.NewFromInt(100)},
		Symbol:      "ETH",
		Quantity:    decimal.NewFromInt(1),
	}
	repo.holdings = append(repo.holdings, eth)

	if _, err := s.GetPatrimoine(context.Background(), 42); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resolver.passes != 2 {
		t.Errorf("changed symbol set must force a pass, got %d passes", resolver.passes)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"100", "100", false},
		{"1 234,56", "1234.56", false},
		{"0.05", "0.05", false},
		{"-5", "", true},
		{"abc", "", true},
	}

	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected err %v", tc.in, err)
			continue
		}
		want, _ := decimal.NewFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("%q: expected %s, got %s", tc.in, want, got)
		}
	}

	if got, err := parseOptionalAmount("-"); err != nil || !got.IsZero() {
		t.Errorf(`"-" must parse to zero, got %s err %v`, got, err)
	}
}
