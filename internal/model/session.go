package model

type state int

const (
	DefaultState state = iota
	ExpectingCategory
	ExpectingHoldingName
	ExpectingSubGroup
	ExpectingValueInEur
	ExpectingInterestRate
	ExpectingAccountCurrency
	ExpectingOriginalValue
	ExpectingTicker
	ExpectingCryptoSymbol
	ExpectingQuantity
	ExpectingPurchasePrice
	ExpectingGeography
	ExpectingPropertyType
	ExpectingCurrentValue
	ExpectingReportingCurrency
	ExpectingSearchQuery
)

// PendingHolding accumulates field input across the guided /add flow.
type PendingHolding struct {
	Category      Category
	Name          string
	SubGroup      string
	ValueInEur    string
	InterestRate  string
	Currency      string
	OriginalValue string
	Ticker        string
	Symbol        string
	Quantity      string
	PurchasePrice string
	Geography     string
	PropertyType  string
	CurrentValue  string
}

type Session struct {
	State          state
	Pending        *PendingHolding
	SearchCategory Category
}
