package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/tonpaybot/internal/model"
)

func TestParseUpdateCommand(t *testing.T) {
	update, err := parseUpdate([]byte(`{
		"update_id": 7,
		"message": {
			"from": {"id": 42, "username": "tester"},
			"chat": {"id": 42},
			"text": "/Buy@tonpaybot level1"
		}
	}`))
	require.NoError(t, err)
	require.Equal(t, model.UpdateKindCommand, update.Kind)
	require.Equal(t, int64(7), update.ID)
	require.Equal(t, int64(42), update.UserID)
	require.Equal(t, int64(42), update.ChatID)
	require.Equal(t, "buy", update.Command)
}

func TestParseUpdateCallback(t *testing.T) {
	update, err := parseUpdate([]byte(`{
		"update_id": 8,
		"callback_query": {
			"id": "cb-1",
			"from": {"id": 42, "username": "tester"},
			"message": {"chat": {"id": 42}},
			"data": "buy_level1"
		}
	}`))
	require.NoError(t, err)
	require.Equal(t, model.UpdateKindCallback, update.Kind)
	require.Equal(t, "cb-1", update.CallbackID)
	require.Equal(t, "buy_level1", update.CallbackData)
	require.Equal(t, int64(42), update.ChatID)
}

func TestParseUpdateText(t *testing.T) {
	update, err := parseUpdate([]byte(`{
		"update_id": 9,
		"message": {"from": {"id": 42}, "chat": {"id": 42}, "text": "привет"}
	}`))
	require.NoError(t, err)
	require.Equal(t, model.UpdateKindText, update.Kind)
	require.Equal(t, "привет", update.Text)
}

// Незнакомая форма - явный OTHER, а не догадки по полям
func TestParseUpdateOther(t *testing.T) {
	update, err := parseUpdate([]byte(`{"update_id": 10, "edited_message": {"chat": {"id": 42}}}`))
	require.NoError(t, err)
	require.Equal(t, model.UpdateKindOther, update.Kind)

	update, err = parseUpdate([]byte(`{"update_id": 11, "message": {"chat": {"id": 42}}}`))
	require.NoError(t, err)
	require.Equal(t, model.UpdateKindOther, update.Kind)
}

func TestParseUpdateErrors(t *testing.T) {
	_, err := parseUpdate([]byte(`not json`))
	require.Error(t, err)

	_, err = parseUpdate([]byte(`{}`))
	require.ErrorIs(t, err, ErrUnknownUpdate)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		command string
		ok      bool
	}{
		{"/start", "start", true},
		{"/buy@tonpaybot", "buy", true},
		{"/STATUS extra args", "status", true},
		{"hello", "", false},
		{"/", "", false},
		{"", "", false},
	}
	for _, test := range tests {
		command, ok := parseCommand(test.text)
		require.Equal(t, test.ok, ok, test.text)
		require.Equal(t, test.command, command, test.text)
	}
}
