package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jperaza/finbot/internal/domain"
	"github.com/jperaza/finbot/internal/usecase"
	"go.uber.org/zap"
)

type Handlers struct {
	intentUC *usecase.IntentUsecase
	alertUC  *usecase.AlertUsecase
	quoteUC  *usecase.QuoteUsecase
	shockUC  *usecase.ShockUsecase
	symbolUC *usecase.SymbolUsecase
	llm      domain.LLMClient
	logger   *zap.Logger
}

func NewHandlers(intentUC *usecase.IntentUsecase, alertUC *usecase.AlertUsecase, quoteUC *usecase.QuoteUsecase, shockUC *usecase.ShockUsecase, symbolUC *usecase.SymbolUsecase, llm domain.LLMClient, logger *zap.Logger) *Handlers {
	return &Handlers{
		intentUC: intentUC,
		alertUC:  alertUC,
		quoteUC:  quoteUC,
		shockUC:  shockUC,
		symbolUC: symbolUC,
		llm:      llm,
		logger:   logger,
	}
}

func (h *Handlers) HandleUpdate(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	if update.Message.IsCommand() {
		h.handleCommand(ctx, api, update)
		return
	}
	if update.Message.Text != "" {
		h.handleText(ctx, api, update)
	}
}

func (h *Handlers) handleCommand(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID

	h.logger.Info(
		"telegram command received",
		zap.Int64("chat_id", chatID),
		zap.String("command", command),
		zap.String("args", args),
	)

	switch command {
	case "start":
		h.reply(api, chatID, "Welcome to finbot.\n\n"+HelpText)
	case "help":
		h.reply(api, chatID, HelpText)
	case "alerts":
		alerts, err := h.alertUC.ListByChat(ctx, chatID)
		if err != nil {
			h.logger.Warn("alerts list failed", zap.Int64("chat_id", chatID), zap.Error(err))
			h.reply(api, chatID, "Could not load your alerts. Please try again.")
			return
		}
		if len(alerts) == 0 {
			h.reply(api, chatID, "No alerts yet. Just ask, e.g. \"avísame si BTC baja de 30000\".")
			return
		}
		h.reply(api, chatID, formatAlertList(alerts))
	case "shock":
		query, err := ParseSymbolArg(args)
		if err != nil {
			h.reply(api, chatID, "Usage: /shock <symbol>")
			return
		}
		symbol, ok := h.symbolUC.Resolve(ctx, query)
		if !ok {
			h.reply(api, chatID, unresolvableMessage)
			return
		}
		h.reply(api, chatID, formatShock(h.shockUC.LastShock(ctx, symbol)))
	default:
		h.logger.Warn("unknown command", zap.Int64("chat_id", chatID), zap.String("command", command))
		h.reply(api, chatID, "Unknown command.\n\n"+HelpText)
	}
}

// handleText routes a free-text message by intent: alert creation,
// market quote, or a general question straight to the model.
func (h *Handlers) handleText(ctx context.Context, api *tgbotapi.BotAPI, update tgbotapi.Update) {
	text := update.Message.Text
	chatID := update.Message.Chat.ID

	intent := h.intentUC.Classify(ctx, text)
	h.logger.Info(
		"telegram text received",
		zap.Int64("chat_id", chatID),
		zap.Int("intent", int(intent)),
	)

	switch intent {
	case usecase.IntentAlert:
		alert, err := h.alertUC.CreateFromText(ctx, chatID, text)
		if err != nil {
			h.logger.Warn("alert creation failed", zap.Int64("chat_id", chatID), zap.Error(err))
			h.reply(api, chatID, h.alertErrorMessage(err))
			return
		}
		h.reply(api, chatID, formatAlertCreated(alert))
	case usecase.IntentQuote:
		quote, err := h.quoteUC.QuoteFromText(ctx, text)
		if err != nil {
			h.logger.Warn("quote failed", zap.Int64("chat_id", chatID), zap.Error(err))
			h.reply(api, chatID, h.quoteErrorMessage(err))
			return
		}
		h.reply(api, chatID, formatQuote(quote))
	default:
		answer, err := h.llm.Ask(ctx, text)
		if err != nil || answer == "" {
			h.logger.Warn("general answer failed", zap.Int64("chat_id", chatID), zap.Error(err))
			h.reply(api, chatID, "I could not answer that right now. Please try again.")
			return
		}
		h.reply(api, chatID, answer)
	}
}

const unresolvableMessage = "Could not resolve the symbol. Try the ticker (e.g. MSFT) or the exact name."

func (h *Handlers) alertErrorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrSymbolUnresolvable):
		return unresolvableMessage
	case errors.Is(err, usecase.ErrMissingFields):
		return "I need a symbol, a direction and a threshold, e.g. \"avísame si BTC baja de 30000\"."
	case errors.Is(err, usecase.ErrModelOutputUnusable):
		return "Could not understand the alert. Try \"alert me if TSLA goes above 300\"."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Could not save the alert. Please try again."
}

func (h *Handlers) quoteErrorMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrSymbolUnresolvable):
		return unresolvableMessage
	case errors.Is(err, usecase.ErrPriceUnavailable):
		return "The price is temporarily unavailable. Please try again shortly."
	}

	h.logger.Warn("unhandled error", zap.Error(err))
	return "Something went wrong. Please try again."
}

func (h *Handlers) reply(api *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := api.Send(msg); err != nil {
		h.logger.Warn("failed to send message", zap.Error(err))
	}
}
