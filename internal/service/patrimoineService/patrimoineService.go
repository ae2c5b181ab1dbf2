package patrimoineService

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service/pricing"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	RegUser(ctx context.Context, chatID int64) (userID int64, err error)
	GetUserID(ctx context.Context, chatID int64) (userID int64, err error)
	GetHoldings(ctx context.Context, userID int64) ([]model.Holding, error)
	GetAllHoldings(ctx context.Context) ([]model.Holding, error)
	InsertHolding(ctx context.Context, userID int64, h model.Holding) error
	UpdateHoldingValue(ctx context.Context, holdingID string, valueInEur decimal.Decimal) error
	DeleteHolding(ctx context.Context, holdingID string, userID int64) error
	GetReportingCurrency(ctx context.Context, chatID int64) (string, error)
	SetReportingCurrency(ctx context.Context, chatID int64, currencyCode string) error
}

type PriceResolver interface {
	ResolveAll(ctx context.Context, holdings []model.Holding) map[string]model.PriceResult
	Results() map[string]model.PriceResult
}

type Rates interface {
	RateConverter
	FromEur(valueInEur decimal.Decimal, currencyCode string) (decimal.Decimal, bool)
	RefreshLive(ctx context.Context) error
	Supported() []string
}

type CryptoSearcher interface {
	SearchCoins(ctx context.Context, query string) ([]model.SearchResult, error)
}

type StockSearcher interface {
	SearchStocks(ctx context.Context, query, token string) ([]model.SearchResult, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, summary model.PortfolioSummary, distributions []model.Distribution) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

// PatrimoineService orchestrates the core: holdings passthrough, price
// resolution triggering, currency normalization, aggregation read models and
// report export.
type PatrimoineService struct {
	cfg          *config.Config
	repo         Repository
	resolver     PriceResolver
	rates        Rates
	cryptoSearch CryptoSearcher
	stockSearch  StockSearcher
	reportGen    ReportGenerator
	cloudStorage CloudStorage

	mu            sync.Mutex
	lastSignature string
	fxRefreshed   bool
}

func New(
	cfg *config.Config,
	repo Repository,
	resolver PriceResolver,
	rates Rates,
	cryptoSearch CryptoSearcher,
	stockSearch StockSearcher,
	reportGen ReportGenerator,
	cloudStorage CloudStorage,
) *PatrimoineService {
	return &PatrimoineService{
		cfg:          cfg,
		repo:         repo,
		resolver:     resolver,
		rates:        rates,
		cryptoSearch: cryptoSearch,
		stockSearch:  stockSearch,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
	}
}

func (s *PatrimoineService) RegUser(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.RegUser"

	slog.Debug("RegUser start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("RegUser finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	_, err := s.repo.RegUser(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.RegUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// GetPatrimoine builds the dashboard read model for one user. A resolution
// pass runs synchronously when the priced-symbol set changed since the last
// pass; otherwise the last known results are reused (the interval job keeps
// them fresh).
func (s *PatrimoineService) GetPatrimoine(ctx context.Context, chatID int64) (model.PortfolioSummary, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.GetPatrimoine"

	slog.Debug("GetPatrimoine start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetPatrimoine finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	holdings, err := s.holdingsForChat(ctx, chatID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	results := s.resolveIfChanged(ctx, holdings)

	return Summarize(holdings, results, s.rates, time.Now()), nil
}

// GetAllocations returns the three classification passes over one user's
// holdings: by asset class, by instrument nature, by geography.
func (s *PatrimoineService) GetAllocations(ctx context.Context, chatID int64) ([]model.Distribution, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.GetAllocations"

	slog.Debug("GetAllocations start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GetAllocations finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	holdings, err := s.holdingsForChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	results := s.resolveIfChanged(ctx, holdings)
	summary := Summarize(holdings, results, s.rates, time.Now())

	return []model.Distribution{
		DistributionByType(summary.Holdings),
		DistributionByInstrument(summary.Holdings),
		DistributionByGeography(summary.Holdings),
	}, nil
}

// RefreshPrices is the interval job: one resolution pass over every priced
// holding in the system, with an opportunistic live FX refresh, persisting
// fresh EUR snapshots for later fallback.
func (s *PatrimoineService) RefreshPrices(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.RefreshPrices"

	slog.Debug("RefreshPrices start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshPrices finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	_ = s.rates.RefreshLive(ctx)
	s.mu.Lock()
	s.fxRefreshed = true
	s.mu.Unlock()

	holdings, err := s.repo.GetAllHoldings(ctx)
	if err != nil {
		slog.Error("got error from repo.GetAllHoldings", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	if len(holdings) == 0 {
		return nil
	}

	results := s.resolver.ResolveAll(ctx, holdings)

	s.mu.Lock()
	s.lastSignature = pricing.Signature(holdings)
	s.mu.Unlock()

	s.persistSnapshots(ctx, holdings, results)

	return nil
}

func (s *PatrimoineService) resolveIfChanged(ctx context.Context, holdings []model.Holding) map[string]model.PriceResult {
	signature := pricing.Signature(holdings)
	if signature == "" {
		return s.resolver.Results()
	}

	s.mu.Lock()
	changed := signature != s.lastSignature
	needFx := !s.fxRefreshed
	s.mu.Unlock()

	if !changed && !needFx {
		return s.resolver.Results()
	}

	if needFx {
		_ = s.rates.RefreshLive(ctx)
	}

	results := s.resolver.ResolveAll(ctx, holdings)

	s.mu.Lock()
	s.lastSignature = signature
	s.fxRefreshed = true
	s.mu.Unlock()

	s.persistSnapshots(ctx, holdings, results)

	return s.resolver.Results()
}

// persistSnapshots writes fresh EUR values back as the valueInEur fallback.
// Failures are logged, never propagated: the snapshot is best effort.
func (s *PatrimoineService) persistSnapshots(ctx context.Context, holdings []model.Holding, results map[string]model.PriceResult) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.persistSnapshots"

	for _, h := range holdings {
		res, ok := results[h.Base().ID]
		if !ok || res.Err != nil {
			continue
		}

		valuation := Valuate(h, res, s.rates)
		go func(holdingID string, value decimal.Decimal) {
			if err := s.repo.UpdateHoldingValue(context.WithoutCancel(ctx), holdingID, value); err != nil {
				slog.Error("got error from repo.UpdateHoldingValue", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID), slog.String("err", err.Error()))
			}
		}(h.Base().ID, valuation.CurrentValue)
	}
}

func (s *PatrimoineService) holdingsForChat(ctx context.Context, chatID int64) ([]model.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	holdings, err := s.repo.GetHoldings(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetHoldings", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return nil, err
	}

	return holdings, nil
}

// AddHolding validates the guided-flow input and persists a new holding of
// the chosen category.
func (s *PatrimoineService) AddHolding(ctx context.Context, chatID int64, pending model.PendingHolding) (model.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.AddHolding"

	slog.Debug("AddHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID), slog.String("category", string(pending.Category)))
	defer func() {
		slog.Debug("AddHolding finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	holding, err := s.buildHolding(pending)
	if err != nil {
		return nil, err
	}

	if err := s.repo.InsertHolding(ctx, userID, holding); err != nil {
		slog.Error("got error from repo.InsertHolding", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return holding, nil
}

func (s *PatrimoineService) buildHolding(pending model.PendingHolding) (model.Holding, error) {
	if pending.Name == "" {
		return nil, fmt.Errorf("%w: empty name", service.ErrInvalidInput)
	}

	base := model.HoldingBase{
		ID:          uuid.NewString(),
		Name:        pending.Name,
		SubGroup:    pending.SubGroup,
		LastUpdated: time.Now(),
	}

	switch pending.Category {
	case model.CategorySavings:
		value, err := parseAmount(pending.ValueInEur)
		if err != nil {
			return nil, err
		}
		rate, err := parseOptionalAmount(pending.InterestRate)
		if err != nil {
			return nil, err
		}
		base.ValueInEur = value
		return model.SavingsAccount{HoldingBase: base, InterestRate: rate}, nil

	case model.CategoryCurrentAccount:
		original, err := parseAmount(pending.OriginalValue)
		if err != nil {
			return nil, err
		}
		currencyCode := strings.ToUpper(strings.TrimSpace(pending.Currency))
		if currencyCode == "" {
			currencyCode = "EUR"
		}
		base.ValueInEur, _ = s.rates.ToEur(original, currencyCode)
		return model.CurrentAccount{HoldingBase: base, Currency: currencyCode, OriginalValue: original}, nil

	case model.CategoryStocks:
		quantity, err := parseAmount(pending.Quantity)
		if err != nil {
			return nil, err
		}
		purchase, err := parseOptionalAmount(pending.PurchasePrice)
		if err != nil {
			return nil, err
		}
		ticker := strings.ToUpper(strings.TrimSpace(pending.Ticker))
		if ticker == "" {
			return nil, fmt.Errorf("%w: empty ticker", service.ErrInvalidInput)
		}
		base.ValueInEur = quantity.Mul(purchase)
		return model.StockHolding{
			HoldingBase:   base,
			Ticker:        ticker,
			Quantity:      quantity,
			PurchasePrice: purchase,
			Listed:        true,
			Geography:     strings.TrimSpace(pending.Geography),
		}, nil

	case model.CategoryCrypto:
		quantity, err := parseAmount(pending.Quantity)
		if err != nil {
			return nil, err
		}
		purchase, err := parseOptionalAmount(pending.PurchasePrice)
		if err != nil {
			return nil, err
		}
		symbol := strings.ToUpper(strings.TrimSpace(pending.Symbol))
		if symbol == "" {
			return nil, fmt.Errorf("%w: empty symbol", service.ErrInvalidInput)
		}
		base.ValueInEur = quantity.Mul(purchase)
		return model.CryptoHolding{
			HoldingBase:   base,
			Symbol:        symbol,
			Quantity:      quantity,
			PurchasePrice: purchase,
		}, nil

	case model.CategoryRealEstate:
		current, err := parseAmount(pending.CurrentValue)
		if err != nil {
			return nil, err
		}
		purchase, err := parseOptionalAmount(pending.PurchasePrice)
		if err != nil {
			return nil, err
		}
		base.ValueInEur = current
		return model.RealEstateHolding{
			HoldingBase:   base,
			PropertyType:  strings.TrimSpace(pending.PropertyType),
			PurchasePrice: purchase,
			CurrentValue:  current,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown category %q", service.ErrInvalidInput, pending.Category)
	}
}

func (s *PatrimoineService) DeleteHolding(ctx context.Context, chatID int64, holdingID string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.DeleteHolding"

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID))
	defer func() {
		slog.Debug("DeleteHolding finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("holdingID", holdingID))
	}()

	userID, err := s.repo.GetUserID(ctx, chatID)
	if err != nil {
		slog.Error("got error from repo.GetUserID", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return s.repo.DeleteHolding(ctx, holdingID, userID)
}

func (s *PatrimoineService) SearchCrypto(ctx context.Context, query string) ([]model.SearchResult, error) {
	if len(query) < 2 {
		return nil, nil
	}
	return s.cryptoSearch.SearchCoins(ctx, query)
}

func (s *PatrimoineService) SearchStocks(ctx context.Context, query string) ([]model.SearchResult, error) {
	token := strings.TrimSpace(s.cfg.API.Finnhub.Token)
	if token == "" || len(query) < 2 {
		return nil, nil
	}
	return s.stockSearch.SearchStocks(ctx, query, token)
}

func (s *PatrimoineService) GetReportingCurrency(ctx context.Context, chatID int64) string {
	currencyCode, err := s.repo.GetReportingCurrency(ctx, chatID)
	if err != nil || currencyCode == "" {
		return s.cfg.ReportingCurrency
	}
	return currencyCode
}

func (s *PatrimoineService) SetReportingCurrency(ctx context.Context, chatID int64, currencyCode string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.SetReportingCurrency"

	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))
	if currencyCode == "" {
		return fmt.Errorf("%w: empty currency", service.ErrInvalidInput)
	}

	err := s.repo.SetReportingCurrency(ctx, chatID, currencyCode)
	if err != nil {
		slog.Error("got error from repo.SetReportingCurrency", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
	return err
}

// SupportedCurrencies lists the codes offered for reporting-currency choice.
func (s *PatrimoineService) SupportedCurrencies() []string {
	return s.rates.Supported()
}

// DisplayValue converts an EUR amount into the user's reporting currency.
func (s *PatrimoineService) DisplayValue(valueInEur decimal.Decimal, currencyCode string) decimal.Decimal {
	converted, _ := s.rates.FromEur(valueInEur, currencyCode)
	return converted
}

// GenerateReport renders the XLSX export and uploads it, returning the
// public download link.
func (s *PatrimoineService) GenerateReport(ctx context.Context, chatID int64) (downloadLink string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PatrimoineService.GenerateReport"

	slog.Debug("GenerateReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("GenerateReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	holdings, err := s.holdingsForChat(ctx, chatID)
	if err != nil {
		return "", err
	}

	if len(holdings) == 0 {
		return "", service.ErrNoHoldings
	}

	results := s.resolveIfChanged(ctx, holdings)
	summary := Summarize(holdings, results, s.rates, time.Now())
	distributions := []model.Distribution{
		DistributionByType(summary.Holdings),
		DistributionByInstrument(summary.Holdings),
		DistributionByGeography(summary.Holdings),
	}

	fileBytes, fileExtension, err := s.reportGen.Generate(ctx, summary, distributions)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("patrimoine_%d_%s%s", chatID, time.Now().Format("2006-01-02_15-04-05"), fileExtension)

	downloadLink, err = s.cloudStorage.UploadFile(ctx, bytes.NewReader(fileBytes), filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return downloadLink, nil
}
