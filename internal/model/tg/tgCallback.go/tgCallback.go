package tgCallback

// Callbacks buttons prefixes
const (
	SearchCrypto string = "search_crypto"
	SearchStocks string = "search_stocks"

	CategoryPrefix      string = "category:"
	DeleteHoldingPrefix string = "delete_holding:"
	CurrencyPrefix      string = "currency:"
	GeographyPrefix     string = "geography:"
)
