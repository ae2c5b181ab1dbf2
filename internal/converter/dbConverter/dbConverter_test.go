package dbConverter

import (
	"database/sql"
	"testing"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

func TestConvertHolding(t *testing.T) {
	t.Run("stock row", func(t *testing.T) {
		row := dbModel.Holding{
			HoldingID:     "h1",
			Name:          "World ETF",
			Category:      "stocks",
			SubGroup:      sql.NullString{String: "PEA", Valid: true},
			ValueInEur:    decimal.NewFromInt(1000),
			Ticker:        sql.NullString{String: "CW8.PA", Valid: true},
			Quantity:      decimal.NullDecimal{Decimal: decimal.NewFromInt(2), Valid: true},
			PurchasePrice: decimal.NullDecimal{Decimal: decimal.NewFromInt(450), Valid: true},
			Listed:        sql.NullBool{Bool: true, Valid: true},
			Geography:     sql.NullString{String: "Monde", Valid: true},
		}

		h, err := ConvertHolding(row)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}

		stock, ok := h.(model.StockHolding)
		if !ok {
			t.Fatalf("expected StockHolding, got %T", h)
		}
		if stock.Ticker != "CW8.PA" || stock.Geography != "Monde" || !stock.Listed {
			t.Errorf("unexpected stock: %+v", stock)
		}
	})

	t.Run("null listed defaults to listed", func(t *testing.T) {
		row := dbModel.Holding{HoldingID: "h2", Name: "Old row", Category: "stocks"}

		h, err := ConvertHolding(row)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !h.(model.StockHolding).Listed {
			t.Error("rows predating the listed column must default to listed")
		}
	})

	t.Run("sub group falls back to legacy institution", func(t *testing.T) {
		row := dbModel.Holding{
			HoldingID:   "h3",
			Name:        "Livret A",
			Category:    "savings",
			Institution: sql.NullString{String: "Ma Banque", Valid: true},
		}

		h, err := ConvertHolding(row)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if h.Base().SubGroup != "Ma Banque" {
			t.Errorf("expected legacy fallback, got %q", h.Base().SubGroup)
		}
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		if _, err := ConvertHolding(dbModel.Holding{HoldingID: "h4", Category: "bonds"}); err == nil {
			t.Error("expected error for unknown category")
		}
	})
}

func TestConvertToRowRoundTrip(t *testing.T) {
	crypto := model.CryptoHolding{
		HoldingBase: model.HoldingBase{
			ID:         "c1",
			Name:       "Bitcoin",
			SubGroup:   "Ledger",
			ValueInEur: decimal.NewFromInt(1500),
		},
		Symbol:        "BTC",
		Quantity:      decimal.NewFromFloat(0.05),
		PurchasePrice: decimal.NewFromInt(20000),
	}

	row := ConvertToRow(crypto, 7)
	if row.UserID != 7 || row.Category != "crypto" || row.Ticker.String != "BTC" {
		t.Errorf("unexpected row: %+v", row)
	}

	back, err := ConvertHolding(row)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	got, ok := back.(model.CryptoHolding)
	if !ok {
		t.Fatalf("expected CryptoHolding, got %T", back)
	}
	if got.Symbol != crypto.Symbol || !got.Quantity.Equal(crypto.Quantity) || !got.PurchasePrice.Equal(crypto.PurchasePrice) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, crypto)
	}
}
