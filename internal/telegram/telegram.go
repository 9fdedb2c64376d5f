package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/iurnickita/tonpaybot/internal/telegram/config"
)

// Исходящие сообщения через Bot API

type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type gateway struct {
	cfg    config.Config
	client *resty.Client
}

func NewGateway(cfg config.Config) Gateway {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &gateway{cfg: cfg, client: client}
}

type sendMessageJSONRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type answerCallbackJSONRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

// JSON ответ Bot API
type botAnswer struct {
	Ok          bool   `json:"ok"`
	Description string `json:"description"`
}

func (gateway *gateway) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	return gateway.post(ctx, "/sendMessage", sendMessageJSONRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "Markdown",
		ReplyMarkup: markup,
	})
}

func (gateway *gateway) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	return gateway.post(ctx, "/answerCallbackQuery", answerCallbackJSONRequest{
		CallbackQueryID: callbackID,
	})
}

func (gateway *gateway) post(ctx context.Context, method string, body any) error {
	setreq := gateway.client.R()
	setreq.Method = http.MethodPost
	setreq.URL = gateway.cfg.APIAddr + "/bot" + gateway.cfg.BotToken + method
	setreq.SetContext(ctx)
	setreq.SetHeader("Content-Type", "application/json")
	setreq.SetBody(body)
	setresp, err := setreq.Send()
	if err != nil {
		return err
	}

	var answer botAnswer
	if err := json.Unmarshal(setresp.Body(), &answer); err != nil {
		return fmt.Errorf("bot api response: %w", err)
	}
	if !answer.Ok {
		return fmt.Errorf("bot api error: %s", answer.Description)
	}
	return nil
}

// FormatTON переводит nanoTON в строку для показа пользователю.
// Сравнение сумм всегда в целых nanoTON, decimal только для вывода
func FormatTON(nano int64) string {
	return decimal.New(nano, -9).String() + " TON"
}
