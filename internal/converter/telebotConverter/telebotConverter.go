package telebotConverter

import (
	"fmt"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model/tg/tgCallback.go"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

var categoryEmojis = map[model.Category]string{
	model.CategorySavings:        "🏦",
	model.CategoryCurrentAccount: "💳",
	model.CategoryStocks:         "📈",
	model.CategoryCrypto:         "🪙",
	model.CategoryRealEstate:     "🏠",
}

// DisplayFn converts an EUR amount into the user's reporting currency.
type DisplayFn func(valueInEur decimal.Decimal) decimal.Decimal

func money(d decimal.Decimal, currencyCode string) string {
	return fmt.Sprintf("%s %s", d.StringFixed(2), currencyCode)
}

func SummaryResponse(summary model.PortfolioSummary, currencyCode string, display DisplayFn) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("💎 Patrimoine total : %s\n", money(display(summary.TotalValue), currencyCode)))
	sb.WriteString(fmt.Sprintf("🕑 Mis à jour : %s\n\n", summary.LastUpdated.Format("02/01/2006 15:04")))

	for _, cat := range summary.Categories {
		if cat.AssetCount == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s %s\n", categoryEmojis[cat.Category], cat.Category.Title()))
		sb.WriteString(fmt.Sprintf("   ▸ Valeur : %s (%s%%)\n", money(display(cat.TotalValue), currencyCode), cat.PercentageOfTotal.StringFixed(1)))
		sb.WriteString(fmt.Sprintf("   ▸ Performance : %s (%s%%)\n", money(display(cat.Performance), currencyCode), cat.PerformancePct.StringFixed(1)))
		sb.WriteString(fmt.Sprintf("   ▸ Actifs : %d\n\n", cat.AssetCount))
	}

	degraded := 0
	for _, v := range summary.Holdings {
		if v.PriceErr != nil || v.StaleRate {
			degraded++
		}
	}
	if degraded > 0 {
		sb.WriteString(fmt.Sprintf("⚠️ %d actif(s) sur dernière valeur connue ou taux approximatif\n", degraded))
	}

	return sb.String()
}

func DistributionsResponse(distributions []model.Distribution, currencyCode string, display DisplayFn) string {
	var sb strings.Builder

	sb.WriteString("📊 Répartition du patrimoine\n\n")

	for _, dist := range distributions {
		if len(dist.Buckets) == 0 {
			continue
		}

		total := decimal.Zero
		for _, bucket := range dist.Buckets {
			total = total.Add(bucket.TotalValue)
		}

		sb.WriteString(fmt.Sprintf("▪️ Par %s :\n", strings.ToLower(dist.Title)))
		for _, bucket := range dist.Buckets {
			pct := decimal.Zero
			if total.IsPositive() {
				pct = bucket.TotalValue.Div(total).Mul(decimal.NewFromInt(100))
			}
			sb.WriteString(fmt.Sprintf("   %s : %s (%s%%)\n", bucket.Name, money(display(bucket.TotalValue), currencyCode), pct.StringFixed(1)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// HoldingsListResponse renders every holding with a delete button each.
func HoldingsListResponse(summary model.PortfolioSummary, currencyCode string, display DisplayFn) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	var sb strings.Builder

	sb.WriteString("📋 Vos actifs :\n\n")

	rows := make([]tele.Row, 0, len(summary.Holdings))
	for i, v := range summary.Holdings {
		base := v.Holding.Base()

		sb.WriteString(fmt.Sprintf("%d. %s %s", i+1, categoryEmojis[v.Holding.Category()], base.Name))
		if base.SubGroup != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", base.SubGroup))
		}
		sb.WriteString(fmt.Sprintf("\n   ▸ %s", money(display(v.CurrentValue), currencyCode)))
		if v.PriceErr != nil {
			sb.WriteString(" ⚠️ dernière valeur connue")
		}
		sb.WriteString("\n")

		btn := markup.Data(fmt.Sprintf("🗑 %d. %s", i+1, base.Name), tgCallback.DeleteHoldingPrefix+base.ID)
		rows = append(rows, markup.Row(btn))
	}

	markup.Inline(rows...)

	return sb.String(), markup
}

func CategoryKeyboard() (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(model.Categories))
	for _, cat := range model.Categories {
		btn := markup.Data(fmt.Sprintf("%s %s", categoryEmojis[cat], cat.Title()), tgCallback.CategoryPrefix+string(cat))
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)

	return "Quelle catégorie d'actif souhaitez-vous ajouter ?", markup
}

func GeographyKeyboard(regions []string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(regions))
	for _, region := range regions {
		rows = append(rows, markup.Row(markup.Data(region, tgCallback.GeographyPrefix+region)))
	}
	markup.Inline(rows...)

	return "Quelle zone géographique ?", markup
}

func CurrencyKeyboard(codes []string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}

	btns := make([]tele.Btn, 0, len(codes))
	for _, code := range codes {
		btns = append(btns, markup.Data(code, tgCallback.CurrencyPrefix+code))
	}
	markup.Inline(markup.Row(btns...))

	return "Choisissez la devise d'affichage :", markup
}

func SearchKeyboard() (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}

	markup.Inline(markup.Row(
		markup.Data("🪙 Crypto", tgCallback.SearchCrypto),
		markup.Data("📈 Actions / ETF", tgCallback.SearchStocks),
	))

	return "Que souhaitez-vous rechercher ?", markup
}

func SearchResultsResponse(results []model.SearchResult) string {
	if len(results) == 0 {
		return "Aucun résultat."
	}

	var sb strings.Builder
	sb.WriteString("🔎 Résultats :\n\n")
	for _, res := range results {
		sb.WriteString(fmt.Sprintf("▸ %s — %s\n", res.Symbol, res.Name))
	}
	sb.WriteString("\nUtilisez le symbole avec /add.")

	return sb.String()
}
