package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/data/session"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/converter/telebotConverter"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service/patrimoineService"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const internalErrMsg = "Une erreur est survenue, réessayez plus tard."

type PatrimoineService interface {
	RegUser(ctx context.Context, chatID int64) error
	GetPatrimoine(ctx context.Context, chatID int64) (model.PortfolioSummary, error)
	GetAllocations(ctx context.Context, chatID int64) ([]model.Distribution, error)
	AddHolding(ctx context.Context, chatID int64, pending model.PendingHolding) (model.Holding, error)
	DeleteHolding(ctx context.Context, chatID int64, holdingID string) error
	SearchCrypto(ctx context.Context, query string) ([]model.SearchResult, error)
	SearchStocks(ctx context.Context, query string) ([]model.SearchResult, error)
	GetReportingCurrency(ctx context.Context, chatID int64) string
	SetReportingCurrency(ctx context.Context, chatID int64, currencyCode string) error
	SupportedCurrencies() []string
	DisplayValue(valueInEur decimal.Decimal, currencyCode string) decimal.Decimal
	GenerateReport(ctx context.Context, chatID int64) (downloadLink string, err error)
	RefreshPrices(ctx context.Context) error
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	patrimoineService PatrimoineService
	session           Session
}

func NewController(patrimoineService PatrimoineService, session Session) *Controller {
	return &Controller{
		patrimoineService: patrimoineService,
		session:           session,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = ctrl.patrimoineService.RegUser(ctx, c.Chat().ID)
	return c.Send("Bienvenue ! Suivez votre patrimoine avec /patrimoine, ajoutez un actif avec /add.")
}

func (ctrl *Controller) displayFn(ctx context.Context, chatID int64) (telebotConverter.DisplayFn, string) {
	currencyCode := ctrl.patrimoineService.GetReportingCurrency(ctx, chatID)
	return func(valueInEur decimal.Decimal) decimal.Decimal {
		return ctrl.patrimoineService.DisplayValue(valueInEur, currencyCode)
	}, currencyCode
}

func (ctrl *Controller) ShowPatrimoine(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	summary, err := ctrl.patrimoineService.GetPatrimoine(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from patrimoineService.GetPatrimoine", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	if len(summary.Holdings) == 0 {
		return c.Send("Aucun actif pour l'instant. Ajoutez-en un avec /add.")
	}

	display, currencyCode := ctrl.displayFn(ctx, c.Chat().ID)
	return c.Send(telebotConverter.SummaryResponse(summary, currencyCode, display))
}

func (ctrl *Controller) ShowAllocations(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	distributions, err := ctrl.patrimoineService.GetAllocations(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from patrimoineService.GetAllocations", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	display, currencyCode := ctrl.displayFn(ctx, c.Chat().ID)
	return c.Send(telebotConverter.DistributionsResponse(distributions, currencyCode, display))
}

func (ctrl *Controller) ListHoldings(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	summary, err := ctrl.patrimoineService.GetPatrimoine(ctx, c.Chat().ID)
	if err != nil {
		slog.Error("got error from patrimoineService.GetPatrimoine", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	if len(summary.Holdings) == 0 {
		return c.Send("Aucun actif pour l'instant. Ajoutez-en un avec /add.")
	}

	display, currencyCode := ctrl.displayFn(ctx, c.Chat().ID)
	text, markup := telebotConverter.HoldingsListResponse(summary, currencyCode, display)
	return c.Send(text, markup)
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return model.Session{}, err
		}
		return model.Session{}, nil
	}
	return chatSession, nil
}

func (ctrl *Controller) saveSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	err := ctrl.session.SetSession(ctx, strconv.FormatInt(c.Chat().ID, 10), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
	}
	return err
}

func (ctrl *Controller) InitAddHolding(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingCategory
	chatSession.Pending = nil
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.CategoryKeyboard()
	return c.Send(text, markup)
}

func (ctrl *Controller) ProcessCategorySelection(c tele.Context, category string) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.Pending = &model.PendingHolding{Category: model.Category(category)}
	chatSession.State = model.ExpectingHoldingName
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit("Quel est le nom de l'actif ?")
}

// ProcessAddFlowInput advances the guided /add flow one text answer at a
// time. Each category follows its own sequence of expected fields.
func (ctrl *Controller) ProcessAddFlowInput(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Pending == nil {
		chatSession.State = model.DefaultState
		_ = ctrl.saveSession(ctx, c, chatSession)
		return c.Send("Recommencez avec /add.")
	}

	pending := chatSession.Pending
	text := strings.TrimSpace(c.Message().Text)
	prompt := ""

	switch chatSession.State {
	case model.ExpectingHoldingName:
		pending.Name = text
		switch pending.Category {
		case model.CategorySavings, model.CategoryCurrentAccount:
			chatSession.State = model.ExpectingSubGroup
			prompt = "Quelle banque ou établissement ? (- pour passer)"
		case model.CategoryStocks:
			chatSession.State = model.ExpectingTicker
			prompt = "Quel ticker ? (ex: CW8.PA, AAPL)"
		case model.CategoryCrypto:
			chatSession.State = model.ExpectingCryptoSymbol
			prompt = "Quel symbole ? (ex: BTC)"
		case model.CategoryRealEstate:
			chatSession.State = model.ExpectingPropertyType
			prompt = "Quel type de bien ? (ex: résidence principale, locatif)"
		}

	case model.ExpectingSubGroup:
		if text != "-" {
			pending.SubGroup = text
		}
		if pending.Category == model.CategorySavings {
			chatSession.State = model.ExpectingValueInEur
			prompt = "Quel montant en EUR ?"
		} else {
			chatSession.State = model.ExpectingAccountCurrency
			prompt = "Quelle devise ? (ex: EUR, USD)"
		}

	case model.ExpectingValueInEur:
		pending.ValueInEur = text
		chatSession.State = model.ExpectingInterestRate
		prompt = "Quel taux d'intérêt en % ? (- si aucun)"

	case model.ExpectingInterestRate:
		pending.InterestRate = text
		return ctrl.finalizeAddHolding(ctx, c, chatSession)

	case model.ExpectingAccountCurrency:
		pending.Currency = text
		chatSession.State = model.ExpectingOriginalValue
		prompt = "Quel solde dans cette devise ?"

	case model.ExpectingOriginalValue:
		pending.OriginalValue = text
		return ctrl.finalizeAddHolding(ctx, c, chatSession)

	case model.ExpectingTicker:
		pending.Ticker = text
		chatSession.State = model.ExpectingQuantity
		prompt = "Quelle quantité ?"

	case model.ExpectingCryptoSymbol:
		pending.Symbol = text
		chatSession.State = model.ExpectingQuantity
		prompt = "Quelle quantité ?"

	case model.ExpectingQuantity:
		pending.Quantity = text
		chatSession.State = model.ExpectingPurchasePrice
		prompt = "Quel prix d'achat unitaire ? (- si inconnu)"
		if pending.Category == model.CategoryRealEstate {
			prompt = "Quel prix d'achat ? (- si inconnu)"
		}

	case model.ExpectingPurchasePrice:
		pending.PurchasePrice = text
		switch pending.Category {
		case model.CategoryStocks:
			chatSession.State = model.ExpectingGeography
			if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
				return c.Send(internalErrMsg)
			}
			geoText, markup := telebotConverter.GeographyKeyboard(patrimoineService.GeographyOptions())
			return c.Send(geoText, markup)
		case model.CategoryRealEstate:
			chatSession.State = model.ExpectingCurrentValue
			prompt = "Quelle valeur actuelle estimée en EUR ?"
		default:
			return ctrl.finalizeAddHolding(ctx, c, chatSession)
		}

	case model.ExpectingGeography:
		pending.Geography = text
		return ctrl.finalizeAddHolding(ctx, c, chatSession)

	case model.ExpectingPropertyType:
		pending.PropertyType = text
		chatSession.State = model.ExpectingPurchasePrice
		prompt = "Quel prix d'achat ? (- si inconnu)"

	case model.ExpectingCurrentValue:
		pending.CurrentValue = text
		return ctrl.finalizeAddHolding(ctx, c, chatSession)

	default:
		return c.Send("Commencez par une commande, par exemple /add.")
	}

	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(prompt)
}

func (ctrl *Controller) ProcessGeographySelection(c tele.Context, region string) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	if chatSession.Pending == nil || chatSession.State != model.ExpectingGeography {
		return c.Send("Recommencez avec /add.")
	}

	chatSession.Pending.Geography = region
	return ctrl.finalizeAddHolding(ctx, c, chatSession)
}

func (ctrl *Controller) finalizeAddHolding(ctx context.Context, c tele.Context, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	pending := *chatSession.Pending

	chatSession.State = model.DefaultState
	chatSession.Pending = nil
	_ = ctrl.saveSession(ctx, c, chatSession)

	holding, err := ctrl.patrimoineService.AddHolding(ctx, c.Chat().ID, pending)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("Saisie invalide, recommencez avec /add.")
		}
		slog.Error("got error from patrimoineService.AddHolding", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("✅ " + holding.Base().Name + " ajouté. Consultez /patrimoine.")
}

func (ctrl *Controller) ProcessDeleteHolding(c tele.Context, holdingID string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.patrimoineService.DeleteHolding(ctx, c.Chat().ID, holdingID)
	if err != nil {
		slog.Error("got error from patrimoineService.DeleteHolding", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Edit("🗑 Actif supprimé.")
}

func (ctrl *Controller) InitSearch(c tele.Context) error {
	text, markup := telebotConverter.SearchKeyboard()
	return c.Send(text, markup)
}

func (ctrl *Controller) initSearchCategory(c tele.Context, category model.Category) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.ExpectingSearchQuery
	chatSession.SearchCategory = category
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Edit("Entrez votre recherche :")
}

func (ctrl *Controller) InitSearchCrypto(c tele.Context) error {
	return ctrl.initSearchCategory(c, model.CategoryCrypto)
}

func (ctrl *Controller) InitSearchStocks(c tele.Context) error {
	return ctrl.initSearchCategory(c, model.CategoryStocks)
}

func (ctrl *Controller) ProcessSearchQuery(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	query := strings.TrimSpace(c.Message().Text)

	var results []model.SearchResult
	if chatSession.SearchCategory == model.CategoryCrypto {
		results, err = ctrl.patrimoineService.SearchCrypto(ctx, query)
	} else {
		results, err = ctrl.patrimoineService.SearchStocks(ctx, query)
	}
	if err != nil {
		slog.Error("search failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.DefaultState
	_ = ctrl.saveSession(ctx, c, chatSession)

	return c.Send(telebotConverter.SearchResultsResponse(results))
}

func (ctrl *Controller) InitCurrencySelection(c tele.Context) error {
	text, markup := telebotConverter.CurrencyKeyboard(ctrl.patrimoineService.SupportedCurrencies())
	return c.Send(text, markup)
}

func (ctrl *Controller) ProcessCurrencySelection(c tele.Context, currencyCode string) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.patrimoineService.SetReportingCurrency(ctx, c.Chat().ID, currencyCode)
	if err != nil {
		slog.Error("got error from patrimoineService.SetReportingCurrency", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Edit("💱 Devise d'affichage : " + currencyCode)
}

func (ctrl *Controller) GenerateReport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	_ = c.Send("⏳ Génération du rapport...")

	downloadLink, err := ctrl.patrimoineService.GenerateReport(ctx, c.Chat().ID)
	if err != nil {
		if errors.Is(err, service.ErrNoHoldings) {
			return c.Send("Aucun actif pour l'instant. Ajoutez-en un avec /add.")
		}
		slog.Error("got error from patrimoineService.GenerateReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("📄 Rapport prêt : " + downloadLink)
}

func (ctrl *Controller) RefreshPrices(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	err := ctrl.patrimoineService.RefreshPrices(ctx)
	if err != nil {
		slog.Error("got error from patrimoineService.RefreshPrices", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return ctrl.ShowPatrimoine(c)
}

func (ctrl *Controller) Cancel(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.State = model.DefaultState
	chatSession.Pending = nil
	if err := ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Opération annulée.")
}
