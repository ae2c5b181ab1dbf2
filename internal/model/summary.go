package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type HoldingValuation struct {
	Holding       Holding
	CurrentValue  decimal.Decimal // EUR
	InvestedValue decimal.Decimal // EUR, at current rates
	Price         decimal.Decimal // resolved unit price, zero when not priced
	PriceErr      error
	StaleRate     bool // conversion used a static or missing rate
}

type CategorySummary struct {
	Category          Category
	TotalValue        decimal.Decimal
	AssetCount        int
	PercentageOfTotal decimal.Decimal
	InvestedValue     decimal.Decimal
	Performance       decimal.Decimal
	PerformancePct    decimal.Decimal
}

type PortfolioSummary struct {
	TotalValue  decimal.Decimal
	Categories  []CategorySummary
	Holdings    []HoldingValuation
	LastUpdated time.Time
}

// Bucket is one named slice of an allocation distribution.
type Bucket struct {
	Name       string
	TotalValue decimal.Decimal
	AssetNames []string
}

// Distribution holds buckets in the fixed enumeration order of the
// classification, zero-value buckets already dropped.
type Distribution struct {
	Title   string
	Buckets []Bucket
}
