package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategorySavings        Category = "savings"
	CategoryCurrentAccount Category = "current_account"
	CategoryStocks         Category = "stocks"
	CategoryCrypto         Category = "crypto"
	CategoryRealEstate     Category = "real_estate"
)

// Categories is the canonical enumeration order used for summaries and reports.
var Categories = []Category{
	CategorySavings,
	CategoryCurrentAccount,
	CategoryStocks,
	CategoryCrypto,
	CategoryRealEstate,
}

var categoryTitles = map[Category]string{
	CategorySavings:        "Livrets Épargne",
	CategoryCurrentAccount: "Comptes Courants",
	CategoryStocks:         "Bourse (Actions / ETF)",
	CategoryCrypto:         "Crypto",
	CategoryRealEstate:     "Immobilier",
}

func (c Category) Title() string {
	return categoryTitles[c]
}

// HoldingBase contains the fields shared by the five holding variants.
// ValueInEur is the last persisted snapshot and serves as fallback whenever
// live pricing is unavailable.
type HoldingBase struct {
	ID          string
	Name        string
	SubGroup    string
	ValueInEur  decimal.Decimal
	LastUpdated time.Time
}

// Holding is a closed union: exactly the five variants below implement it.
// Consumers dispatch with a type switch over all variants.
type Holding interface {
	Base() HoldingBase
	Category() Category
	sealed()
}

type SavingsAccount struct {
	HoldingBase
	InterestRate decimal.Decimal
}

type CurrentAccount struct {
	HoldingBase
	Currency      string
	OriginalValue decimal.Decimal
}

type StockHolding struct {
	HoldingBase
	Ticker        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
	CurrentPrice  decimal.Decimal
	Listed        bool
	Geography     string
}

type CryptoHolding struct {
	HoldingBase
	Symbol        string
	Quantity      decimal.Decimal
	PurchasePrice decimal.Decimal
}

type RealEstateHolding struct {
	HoldingBase
	PropertyType  string
	PurchasePrice decimal.Decimal
	CurrentValue  decimal.Decimal
}

func (h SavingsAccount) Base() HoldingBase    { return h.HoldingBase }
func (h CurrentAccount) Base() HoldingBase    { return h.HoldingBase }
func (h StockHolding) Base() HoldingBase      { return h.HoldingBase }
func (h CryptoHolding) Base() HoldingBase     { return h.HoldingBase }
func (h RealEstateHolding) Base() HoldingBase { return h.HoldingBase }

func (h SavingsAccount) Category() Category    { return CategorySavings }
func (h CurrentAccount) Category() Category    { return CategoryCurrentAccount }
func (h StockHolding) Category() Category      { return CategoryStocks }
func (h CryptoHolding) Category() Category     { return CategoryCrypto }
func (h RealEstateHolding) Category() Category { return CategoryRealEstate }

func (h SavingsAccount) sealed()    {}
func (h CurrentAccount) sealed()    {}
func (h StockHolding) sealed()      {}
func (h CryptoHolding) sealed()     {}
func (h RealEstateHolding) sealed() {}
