package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/data/session"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/model/tg/tgCallback.go"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/transport/telegram"
	customMW "github.com/KotFed0t/patrimoine_tracker_bot/internal/transport/telegram/middleware"
	"github.com/KotFed0t/patrimoine_tracker_bot/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// controller method depends on the current flow step
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			}
			return c.Send("Commencez par une commande, par exemple /patrimoine.")
		}

		c.Set("session", chatSession)

		switch chatSession.State {
		case model.ExpectingHoldingName,
			model.ExpectingSubGroup,
			model.ExpectingValueInEur,
			model.ExpectingInterestRate,
			model.ExpectingAccountCurrency,
			model.ExpectingOriginalValue,
			model.ExpectingTicker,
			model.ExpectingCryptoSymbol,
			model.ExpectingQuantity,
			model.ExpectingPurchasePrice,
			model.ExpectingGeography,
			model.ExpectingPropertyType,
			model.ExpectingCurrentValue:
			return b.ctrl.ProcessAddFlowInput(c)
		case model.ExpectingSearchQuery:
			return b.ctrl.ProcessSearchQuery(c)
		default:
			slog.Debug("text outside any flow", slog.String("rqID", rqID), slog.Any("state", chatSession.State))
			return c.Send("Commencez par une commande, par exemple /patrimoine.")
		}
	})

	b.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		data := strings.TrimPrefix(strings.TrimSpace(c.Callback().Data), "\f")

		switch {
		case strings.HasPrefix(data, tgCallback.CategoryPrefix):
			return b.ctrl.ProcessCategorySelection(c, strings.TrimPrefix(data, tgCallback.CategoryPrefix))
		case strings.HasPrefix(data, tgCallback.DeleteHoldingPrefix):
			return b.ctrl.ProcessDeleteHolding(c, strings.TrimPrefix(data, tgCallback.DeleteHoldingPrefix))
		case strings.HasPrefix(data, tgCallback.CurrencyPrefix):
			return b.ctrl.ProcessCurrencySelection(c, strings.TrimPrefix(data, tgCallback.CurrencyPrefix))
		case strings.HasPrefix(data, tgCallback.GeographyPrefix):
			return b.ctrl.ProcessGeographySelection(c, strings.TrimPrefix(data, tgCallback.GeographyPrefix))
		case data == tgCallback.SearchCrypto:
			return b.ctrl.InitSearchCrypto(c)
		case data == tgCallback.SearchStocks:
			return b.ctrl.InitSearchStocks(c)
		default:
			slog.Warn("unknown callback", slog.String("data", data))
			return c.Respond()
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/patrimoine", b.ctrl.ShowPatrimoine)
	b.bot.Handle("/allocations", b.ctrl.ShowAllocations)
	b.bot.Handle("/actifs", b.ctrl.ListHoldings)
	b.bot.Handle("/add", b.ctrl.InitAddHolding)
	b.bot.Handle("/search", b.ctrl.InitSearch)
	b.bot.Handle("/currency", b.ctrl.InitCurrencySelection)
	b.bot.Handle("/report", b.ctrl.GenerateReport)
	b.bot.Handle("/refresh", b.ctrl.RefreshPrices)
	b.bot.Handle("/cancel", b.ctrl.Cancel)
}
