package handler

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/iurnickita/tonpaybot/internal/model"
)

var ErrUnknownUpdate = errors.New("unknown update shape")

// JSON обновления Bot API, только нужные поля
type updateJSON struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		From *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

// parseUpdate различает виды обновлений явно.
// Непонятная форма - это UpdateKindOther, а не ошибка:
// ошибкой считается только нечитаемый JSON
func parseUpdate(body []byte) (model.Update, error) {
	var uJSON updateJSON
	if err := json.Unmarshal(body, &uJSON); err != nil {
		return model.Update{}, err
	}
	if uJSON.UpdateID == 0 {
		return model.Update{}, ErrUnknownUpdate
	}

	update := model.Update{
		ID:   uJSON.UpdateID,
		Kind: model.UpdateKindOther,
	}

	switch {
	case uJSON.CallbackQuery != nil:
		update.Kind = model.UpdateKindCallback
		update.UserID = uJSON.CallbackQuery.From.ID
		update.Username = uJSON.CallbackQuery.From.Username
		update.CallbackID = uJSON.CallbackQuery.ID
		update.CallbackData = uJSON.CallbackQuery.Data
		if uJSON.CallbackQuery.Message != nil {
			update.ChatID = uJSON.CallbackQuery.Message.Chat.ID
		}
	case uJSON.Message != nil:
		update.ChatID = uJSON.Message.Chat.ID
		if uJSON.Message.From != nil {
			update.UserID = uJSON.Message.From.ID
			update.Username = uJSON.Message.From.Username
		}
		update.Text = uJSON.Message.Text
		if command, ok := parseCommand(uJSON.Message.Text); ok {
			update.Kind = model.UpdateKindCommand
			update.Command = command
		} else if uJSON.Message.Text != "" {
			update.Kind = model.UpdateKindText
		}
	}

	return update, nil
}

// "/buy@tonpaybot arg" -> "buy"
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	command := strings.TrimPrefix(text, "/")
	if i := strings.IndexByte(command, ' '); i >= 0 {
		command = command[:i]
	}
	if i := strings.IndexByte(command, '@'); i >= 0 {
		command = command[:i]
	}
	if command == "" {
		return "", false
	}
	return strings.ToLower(command), true
}
