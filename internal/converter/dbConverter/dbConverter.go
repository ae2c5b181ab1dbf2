package dbConverter

import (
	"database/sql"
	"fmt"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model/dbModel"
	"github.com/shopspring/decimal"
)

// ConvertHolding maps a flat holdings row to the model union. SubGroup falls
// back to the legacy institution column when empty.
func ConvertHolding(row dbModel.Holding) (model.Holding, error) {
	subGroup := row.SubGroup.String
	if subGroup == "" {
		subGroup = row.Institution.String
	}

	base := model.HoldingBase{
		ID:          row.HoldingID,
		Name:        row.Name,
		SubGroup:    subGroup,
		ValueInEur:  row.ValueInEur,
		LastUpdated: row.LastUpdated,
	}

	switch model.Category(row.Category) {
	case model.CategorySavings:
		return model.SavingsAccount{
			HoldingBase:  base,
			InterestRate: nullDecimal(row.InterestRate),
		}, nil
	case model.CategoryCurrentAccount:
		return model.CurrentAccount{
			HoldingBase:   base,
			Currency:      row.Currency.String,
			OriginalValue: nullDecimal(row.OriginalValue),
		}, nil
	case model.CategoryStocks:
		return model.StockHolding{
			HoldingBase:   base,
			Ticker:        row.Ticker.String,
			Quantity:      nullDecimal(row.Quantity),
			PurchasePrice: nullDecimal(row.PurchasePrice),
			CurrentPrice:  nullDecimal(row.CurrentPrice),
			Listed:        !row.Listed.Valid || row.Listed.Bool,
			Geography:     row.Geography.String,
		}, nil
	case model.CategoryCrypto:
		return model.CryptoHolding{
			HoldingBase:   base,
			Symbol:        row.Ticker.String,
			Quantity:      nullDecimal(row.Quantity),
			PurchasePrice: nullDecimal(row.PurchasePrice),
		}, nil
	case model.CategoryRealEstate:
		return model.RealEstateHolding{
			HoldingBase:   base,
			PropertyType:  row.PropertyType.String,
			PurchasePrice: nullDecimal(row.PurchasePrice),
			CurrentValue:  nullDecimal(row.CurrentValue),
		}, nil
	default:
		return nil, fmt.Errorf("unknown holding category %q", row.Category)
	}
}

// ConvertToRow maps a model holding back to the row shape for persistence.
func ConvertToRow(h model.Holding, userID int64) dbModel.Holding {
	base := h.Base()
	row := dbModel.Holding{
		HoldingID:   base.ID,
		UserID:      userID,
		Name:        base.Name,
		Category:    string(h.Category()),
		SubGroup:    nullString(base.SubGroup),
		ValueInEur:  base.ValueInEur,
		LastUpdated: base.LastUpdated,
	}

	switch v := h.(type) {
	case model.SavingsAccount:
		row.InterestRate = decimal.NullDecimal{Decimal: v.InterestRate, Valid: true}
	case model.CurrentAccount:
		row.Currency = nullString(v.Currency)
		row.OriginalValue = decimal.NullDecimal{Decimal: v.OriginalValue, Valid: true}
	case model.StockHolding:
		row.Ticker = nullString(v.Ticker)
		row.Quantity = decimal.NullDecimal{Decimal: v.Quantity, Valid: true}
		row.PurchasePrice = decimal.NullDecimal{Decimal: v.PurchasePrice, Valid: true}
		row.CurrentPrice = decimal.NullDecimal{Decimal: v.CurrentPrice, Valid: true}
		row.Listed = nullBool(v.Listed)
		row.Geography = nullString(v.Geography)
	case model.CryptoHolding:
		row.Ticker = nullString(v.Symbol)
		row.Quantity = decimal.NullDecimal{Decimal: v.Quantity, Valid: true}
		row.PurchasePrice = decimal.NullDecimal{Decimal: v.PurchasePrice, Valid: true}
	case model.RealEstateHolding:
		row.PropertyType = nullString(v.PropertyType)
		row.PurchasePrice = decimal.NullDecimal{Decimal: v.PurchasePrice, Valid: true}
		row.CurrentValue = decimal.NullDecimal{Decimal: v.CurrentValue, Valid: true}
	}

	return row
}

func nullDecimal(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b bool) sql.NullBool {
	return sql.NullBool{Bool: b, Valid: true}
}
