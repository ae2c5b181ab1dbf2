package model

import "github.com/shopspring/decimal"

// Quote is the normalized shape returned by every price source: a price plus
// the currency metadata needed for conversion to EUR.
type Quote struct {
	Price            decimal.Decimal
	Currency         string
	InstrumentType   string
	ExchangeTimezone string
	ExchangeName     string
	LongName         string
}

// PriceResult is the per-holding outcome of one resolution pass. Err carries
// the typed failure of the last source tried; a failed holding keeps its
// stored ValueInEur in aggregations.
type PriceResult struct {
	Quote Quote
	Err   error
}

type SearchResult struct {
	Symbol string
	Name   string
	Type   string
}
