package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iurnickita/tonpaybot/internal/dispatcher/config"
	"github.com/iurnickita/tonpaybot/internal/model"
	"github.com/iurnickita/tonpaybot/internal/registry"
	"github.com/iurnickita/tonpaybot/internal/telegram"
	"github.com/iurnickita/tonpaybot/internal/tonclient"
)

// Маршрутизация разобранных обновлений по обработчикам.
// Падение обработчика не должно ронять процесс

type Dispatcher interface {
	Dispatch(ctx context.Context, update model.Update)
}

// Уровни доступа и их цены в nanoTON
const (
	TierLevel1 = "LEVEL1"
	TierLevel2 = "LEVEL2"
)

var tierPriceNano = map[string]int64{
	TierLevel1: 500000000,  // 0.5 TON
	TierLevel2: 1000000000, // 1 TON
}

type handlerFunc func(ctx context.Context, update model.Update) error

type dispatcher struct {
	cfg       config.Config
	registry  registry.Registry
	gateway   telegram.Gateway
	ton       tonclient.TonClient
	commands  map[string]handlerFunc
	callbacks map[string]handlerFunc
	zaplog    *zap.Logger
}

func NewDispatcher(cfg config.Config, reg registry.Registry, gateway telegram.Gateway, ton tonclient.TonClient, zaplog *zap.Logger) Dispatcher {
	d := &dispatcher{
		cfg:      cfg,
		registry: reg,
		gateway:  gateway,
		ton:      ton,
		zaplog:   zaplog,
	}
	d.commands = map[string]handlerFunc{
		"start":   d.handleStart,
		"help":    d.handleHelp,
		"status":  d.handleStatus,
		"buy":     d.buyHandler(TierLevel1),
		"upgrade": d.buyHandler(TierLevel2),
		"balance": d.handleBalance,
	}
	d.callbacks = map[string]handlerFunc{
		"buy_level1": d.buyHandler(TierLevel1),
		"buy_level2": d.buyHandler(TierLevel2),
		"my_status":  d.handleStatus,
		"show_help":  d.handleHelp,
	}
	return d
}

func (dispatcher *dispatcher) Dispatch(ctx context.Context, update model.Update) {
	defer func() {
		if r := recover(); r != nil {
			dispatcher.zaplog.Error("handler panic",
				zap.Int64("update_id", update.ID),
				zap.Any("panic", r),
			)
		}
	}()

	var err error
	switch update.Kind {
	case model.UpdateKindCommand:
		handler, ok := dispatcher.commands[update.Command]
		if !ok {
			handler = dispatcher.handleUnknown
		}
		err = handler(ctx, update)
	case model.UpdateKindCallback:
		handler, ok := dispatcher.callbacks[update.CallbackData]
		if !ok {
			handler = dispatcher.handleUnknown
		}
		err = handler(ctx, update)
		// иначе клиент показывает бесконечный спиннер на кнопке
		if answerErr := dispatcher.gateway.AnswerCallbackQuery(ctx, update.CallbackID); answerErr != nil {
			dispatcher.zaplog.Warn("answer callback",
				zap.Int64("update_id", update.ID),
				zap.Error(answerErr),
			)
		}
	case model.UpdateKindText:
		err = dispatcher.handleText(ctx, update)
	default:
		dispatcher.zaplog.Info("unrecognized update",
			zap.Int64("update_id", update.ID),
			zap.String("kind", update.Kind),
		)
		return
	}

	if err != nil {
		dispatcher.zaplog.Error("dispatch failed",
			zap.Int64("update_id", update.ID),
			zap.String("kind", update.Kind),
			zap.String("command", update.Command),
			zap.Error(err),
		)
	}
}

func (dispatcher *dispatcher) handleStart(ctx context.Context, update model.Update) error {
	text := "Привет! Это бот оплаты через TON.\n\n" +
		"/buy - купить доступ LEVEL1\n" +
		"/upgrade - купить доступ LEVEL2\n" +
		"/status - статус заявок\n" +
		"/help - все команды"
	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Купить LEVEL1", CallbackData: "buy_level1"}},
			{{Text: "Купить LEVEL2", CallbackData: "buy_level2"}},
			{{Text: "Мои заявки", CallbackData: "my_status"}, {Text: "Помощь", CallbackData: "show_help"}},
		},
	}
	return dispatcher.gateway.SendMessage(ctx, update.ChatID, text, markup)
}

func (dispatcher *dispatcher) handleHelp(ctx context.Context, update model.Update) error {
	text := "Команды:\n" +
		"/start - начало работы\n" +
		"/buy - заявка на LEVEL1 (" + telegram.FormatTON(tierPriceNano[TierLevel1]) + ")\n" +
		"/upgrade - заявка на LEVEL2 (" + telegram.FormatTON(tierPriceNano[TierLevel2]) + ")\n" +
		"/status - статус заявок\n" +
		"/balance - баланс кошелька приема"
	return dispatcher.gateway.SendMessage(ctx, update.ChatID, text, nil)
}

func (dispatcher *dispatcher) buyHandler(tier string) handlerFunc {
	return func(ctx context.Context, update model.Update) error {
		request, err := dispatcher.registry.Create(
			update.UserID, update.ChatID, tier, tierPriceNano[tier], dispatcher.cfg.RequestTTL)
		if err != nil {
			if errors.Is(err, registry.ErrDuplicateActiveRequest) {
				return dispatcher.gateway.SendMessage(ctx, update.ChatID,
					"У вас уже есть активная заявка на "+tier+". Оплатите ее или дождитесь истечения.", nil)
			}
			return err
		}

		text := fmt.Sprintf(
			"Заявка на %s создана.\n\n"+
				"Переведите *%s* на адрес:\n`%s`\n\n"+
				"Обязательно укажите комментарий (memo):\n`%s`\n\n"+
				"Заявка действует до %s. Подтверждение придет автоматически.",
			tier,
			telegram.FormatTON(request.AmountNano),
			dispatcher.cfg.WatchAddress,
			request.MatchToken,
			request.ExpiresAt.Format("15:04 02.01.2006"),
		)
		return dispatcher.gateway.SendMessage(ctx, update.ChatID, text, nil)
	}
}

func (dispatcher *dispatcher) handleStatus(ctx context.Context, update model.Update) error {
	requests := dispatcher.registry.Status(update.UserID)
	if len(requests) == 0 {
		return dispatcher.gateway.SendMessage(ctx, update.ChatID, "Заявок нет. /buy - создать.", nil)
	}

	var sb strings.Builder
	sb.WriteString("Ваши заявки:\n")
	for _, request := range requests {
		sb.WriteString(fmt.Sprintf("\n%s - %s - %s",
			request.Tier, telegram.FormatTON(request.AmountNano), request.Status))
		if request.Status == model.PaymentRequestStatusPending {
			sb.WriteString(" (до " + request.ExpiresAt.Format("15:04 02.01.2006") + ")")
		}
	}
	return dispatcher.gateway.SendMessage(ctx, update.ChatID, sb.String(), nil)
}

func (dispatcher *dispatcher) handleBalance(ctx context.Context, update model.Update) error {
	info, err := dispatcher.ton.GetAddressInfo(ctx, dispatcher.cfg.WatchAddress)
	if err != nil {
		if sendErr := dispatcher.gateway.SendMessage(ctx, update.ChatID,
			"Кошелек сейчас недоступен, попробуйте позже.", nil); sendErr != nil {
			dispatcher.zaplog.Warn("send balance fallback", zap.Error(sendErr))
		}
		return err
	}
	return dispatcher.gateway.SendMessage(ctx, update.ChatID,
		"Баланс кошелька приема: "+telegram.FormatTON(info.BalanceNano), nil)
}

func (dispatcher *dispatcher) handleText(ctx context.Context, update model.Update) error {
	return dispatcher.gateway.SendMessage(ctx, update.ChatID,
		"Я понимаю только команды. /help - список команд.", nil)
}

func (dispatcher *dispatcher) handleUnknown(ctx context.Context, update model.Update) error {
	dispatcher.zaplog.Info("unknown command",
		zap.Int64("update_id", update.ID),
		zap.String("command", update.Command),
		zap.String("callback", update.CallbackData),
	)
	return dispatcher.gateway.SendMessage(ctx, update.ChatID,
		"Неизвестная команда. /help - список команд.", nil)
}
