package currency

import (
	"context"
	"log/slog"
	"sync"

	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/shopspring/decimal"
)

// FxSource quotes a currency pair as a synthetic ticker (EURUSD=X).
type FxSource interface {
	FxRate(ctx context.Context, pair string) (decimal.Decimal, error)
}

// Static bootstrap factors (currency → EUR). Only EUR/USD is refreshed live;
// the others stay on these rates unless extended.
func staticRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"EUR": decimal.NewFromInt(1),
		"USD": decimal.NewFromFloat(0.918),
		"GBP": decimal.NewFromFloat(1.165),
		"CHF": decimal.NewFromFloat(1.045),
		"JPY": decimal.NewFromFloat(0.00548),
	}
}

// Service converts between EUR and other currencies with the best-available
// rate. A missing factor degrades to passing the value through unconverted,
// flagged stale, never an error.
type Service struct {
	fx FxSource

	mu    sync.RWMutex
	toEur map[string]decimal.Decimal
}

func New(fx FxSource) *Service {
	return &Service{fx: fx, toEur: staticRates()}
}

// RefreshLive replaces the USD factor with a live EUR/USD quote. Failures
// keep the static rate.
func (s *Service) RefreshLive(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "currency.Service.RefreshLive"

	usdPerEur, err := s.fx.FxRate(ctx, "EURUSD=X")
	if err != nil {
		slog.Warn("live EUR/USD fetch failed, keeping static rate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if usdPerEur.IsZero() {
		slog.Warn("live EUR/USD rate is zero, keeping static rate", slog.String("rqID", rqID), slog.String("op", op))
		return nil
	}

	eurPerUsd := decimal.NewFromInt(1).Div(usdPerEur)

	s.mu.Lock()
	s.toEur["USD"] = eurPerUsd
	s.mu.Unlock()

	slog.Info("EUR/USD rate refreshed", slog.String("rqID", rqID), slog.String("eurPerUsd", eurPerUsd.String()))

	return nil
}

// ToEur converts value from the given currency. stale reports that no factor
// was known and the value passed through unconverted.
func (s *Service) ToEur(value decimal.Decimal, currencyCode string) (converted decimal.Decimal, stale bool) {
	if currencyCode == "" || currencyCode == "EUR" {
		return value, false
	}

	s.mu.RLock()
	rate, ok := s.toEur[currencyCode]
	s.mu.RUnlock()

	if !ok {
		return value, true
	}
	return value.Mul(rate), false
}

// FromEur converts an EUR amount into the reporting currency for display.
func (s *Service) FromEur(valueInEur decimal.Decimal, currencyCode string) (converted decimal.Decimal, stale bool) {
	if currencyCode == "" || currencyCode == "EUR" {
		return valueInEur, false
	}

	s.mu.RLock()
	rate, ok := s.toEur[currencyCode]
	s.mu.RUnlock()

	if !ok || rate.IsZero() {
		return valueInEur, true
	}
	return valueInEur.Div(rate), false
}

// Supported lists the currencies with a known factor.
func (s *Service) Supported() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.toEur))
	for code := range s.toEur {
		codes = append(codes, code)
	}
	return codes
}
