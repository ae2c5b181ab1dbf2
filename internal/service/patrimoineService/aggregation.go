package patrimoineService

import (
	"strings"
	"time"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RateConverter converts a native-currency amount to EUR; stale reports that
// no factor was known and the value passed through unconverted.
type RateConverter interface {
	ToEur(value decimal.Decimal, currencyCode string) (converted decimal.Decimal, stale bool)
}

// Valuate computes the current and invested EUR value of one holding.
// Holdings whose live price failed keep their stored ValueInEur and carry the
// error; cash-like holdings are zero-performance by definition. Purchase
// amounts reuse the current rate, not the rate at purchase time.
func Valuate(h model.Holding, res model.PriceResult, rates RateConverter) model.HoldingValuation {
	val := model.HoldingValuation{Holding: h}

	switch v := h.(type) {
	case model.SavingsAccount:
		val.CurrentValue = v.ValueInEur
		val.InvestedValue = val.CurrentValue
	case model.CurrentAccount:
		val.CurrentValue, val.StaleRate = rates.ToEur(v.OriginalValue, v.Currency)
		val.InvestedValue = val.CurrentValue
	case model.StockHolding:
		if !v.Listed {
			// Manually priced, never resolved live.
			if v.CurrentPrice.IsPositive() {
				val.Price = v.CurrentPrice
				val.CurrentValue = v.Quantity.Mul(v.CurrentPrice)
			} else {
				val.CurrentValue = v.ValueInEur
			}
			val.InvestedValue = v.Quantity.Mul(v.PurchasePrice)
			break
		}
		val = valuatePriced(h, v.Quantity, v.PurchasePrice, v.ValueInEur, res, rates)
	case model.CryptoHolding:
		val = valuatePriced(h, v.Quantity, v.PurchasePrice, v.ValueInEur, res, rates)
	case model.RealEstateHolding:
		if v.CurrentValue.IsPositive() {
			val.CurrentValue = v.CurrentValue
		} else {
			val.CurrentValue = v.ValueInEur
		}
		val.InvestedValue = v.PurchasePrice
	}

	return val
}

func valuatePriced(h model.Holding, quantity, purchasePrice, storedValue decimal.Decimal, res model.PriceResult, rates RateConverter) model.HoldingValuation {
	val := model.HoldingValuation{Holding: h, PriceErr: res.Err}

	if res.Err != nil || res.Quote.Price.IsZero() {
		val.CurrentValue = storedValue
		val.InvestedValue, _ = rates.ToEur(quantity.Mul(purchasePrice), res.Quote.Currency)
		return val
	}

	val.Price = res.Quote.Price
	val.CurrentValue, val.StaleRate = rates.ToEur(quantity.Mul(res.Quote.Price), res.Quote.Currency)
	// Purchase price is recorded in the listing currency, converted at the
	// current rate.
	val.InvestedValue, _ = rates.ToEur(quantity.Mul(purchasePrice), res.Quote.Currency)
	return val
}

// Summarize recomputes the whole read model from current holdings and
// resolution results. Pure function of its inputs.
func Summarize(holdings []model.Holding, results map[string]model.PriceResult, rates RateConverter, now time.Time) model.PortfolioSummary {
	valuations := make([]model.HoldingValuation, 0, len(holdings))
	for _, h := range holdings {
		valuations = append(valuations, Valuate(h, results[h.Base().ID], rates))
	}

	total := decimal.Zero
	for _, v := range valuations {
		total = total.Add(v.CurrentValue)
	}

	categories := make([]model.CategorySummary, 0, len(model.Categories))
	for _, cat := range model.Categories {
		summary := model.CategorySummary{Category: cat}
		for _, v := range valuations {
			if v.Holding.Category() != cat {
				continue
			}
			summary.AssetCount++
			summary.TotalValue = summary.TotalValue.Add(v.CurrentValue)
			summary.InvestedValue = summary.InvestedValue.Add(v.InvestedValue)
		}

		if total.IsPositive() {
			summary.PercentageOfTotal = summary.TotalValue.Div(total).Mul(hundred)
		}

		summary.Performance = summary.TotalValue.Sub(summary.InvestedValue)
		if summary.InvestedValue.IsPositive() {
			summary.PerformancePct = summary.Performance.Div(summary.InvestedValue).Mul(hundred)
		}

		categories = append(categories, summary)
	}

	return model.PortfolioSummary{
		TotalValue:  total,
		Categories:  categories,
		Holdings:    valuations,
		LastUpdated: now,
	}
}

// Allocation bucket names, in fixed enumeration order (iteration order of the
// output never depends on holdings order).
var (
	typeBuckets       = []string{"Cash", "Actions/ETF", "Immobilier", "Crypto"}
	instrumentBuckets = []string{"Obligation", "Action", "Matière Première", "Cash", "Crypto"}
	geographyBuckets  = []string{"Monde", "Etats Unis", "Europe", "Asie", "Emergents", "Autre", "Inconnue"}
)

const defaultGeography = "Inconnue"

// GeographyOptions lists the manual tags offered when adding a stock; the
// default bucket is implicit and not proposed.
func GeographyOptions() []string {
	return geographyBuckets[:len(geographyBuckets)-1]
}

type bucketAccumulator struct {
	order  []string
	values map[string]*model.Bucket
}

func newBucketAccumulator(order []string) *bucketAccumulator {
	acc := &bucketAccumulator{order: order, values: make(map[string]*model.Bucket, len(order))}
	for _, name := range order {
		acc.values[name] = &model.Bucket{Name: name}
	}
	return acc
}

func (a *bucketAccumulator) add(name string, v model.HoldingValuation) {
	bucket, ok := a.values[name]
	if !ok {
		return
	}
	bucket.TotalValue = bucket.TotalValue.Add(v.CurrentValue)
	bucket.AssetNames = append(bucket.AssetNames, v.Holding.Base().Name)
}

// finish drops zero-value buckets and returns the rest in enumeration order.
func (a *bucketAccumulator) finish(title string) model.Distribution {
	buckets := make([]model.Bucket, 0, len(a.order))
	for _, name := range a.order {
		if bucket := a.values[name]; bucket.TotalValue.IsPositive() {
			buckets = append(buckets, *bucket)
		}
	}
	return model.Distribution{Title: title, Buckets: buckets}
}

// DistributionByType groups by asset class.
func DistributionByType(valuations []model.HoldingValuation) model.Distribution {
	acc := newBucketAccumulator(typeBuckets)
	for _, v := range valuations {
		switch v.Holding.Category() {
		case model.CategorySavings, model.CategoryCurrentAccount:
			acc.add("Cash", v)
		case model.CategoryStocks:
			acc.add("Actions/ETF", v)
		case model.CategoryRealEstate:
			acc.add("Immobilier", v)
		case model.CategoryCrypto:
			acc.add("Crypto", v)
		}
	}
	return acc.finish("Instrument")
}

// DistributionByInstrument groups by the nature of the instrument: savings
// with a positive rate behave like bonds, commodity and bond ETFs are spotted
// by name keywords, real estate is out of scope here.
func DistributionByInstrument(valuations []model.HoldingValuation) model.Distribution {
	acc := newBucketAccumulator(instrumentBuckets)
	for _, v := range valuations {
		switch h := v.Holding.(type) {
		case model.SavingsAccount:
			if h.InterestRate.IsPositive() {
				acc.add("Obligation", v)
			} else {
				acc.add("Cash", v)
			}
		case model.CurrentAccount:
			acc.add("Cash", v)
		case model.CryptoHolding:
			acc.add("Crypto", v)
		case model.StockHolding:
			acc.add(instrumentBucketFromName(h.Name), v)
		case model.RealEstateHolding:
		}
	}
	return acc.finish("Nature")
}

func instrumentBucketFromName(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range []string{"gold", " or ", "silver", "physical", "commodity"} {
		if strings.Contains(lower, kw) {
			return "Matière Première"
		}
	}
	for _, kw := range []string{"bond", "oblig", "treasury"} {
		if strings.Contains(lower, kw) {
			return "Obligation"
		}
	}
	return "Action"
}

// DistributionByGeography covers stocks only, from the manual per-holding tag.
// Automatic inference from exchange metadata was deliberately dropped in
// favor of explicit tagging; untagged stocks land in the default bucket.
func DistributionByGeography(valuations []model.HoldingValuation) model.Distribution {
	acc := newBucketAccumulator(geographyBuckets)
	for _, v := range valuations {
		stock, ok := v.Holding.(model.StockHolding)
		if !ok {
			continue
		}

		geography := stock.Geography
		if _, known := acc.values[geography]; !known || geography == "" {
			geography = defaultGeography
		}
		acc.add(geography, v)
	}
	return acc.finish("Géographie")
}
