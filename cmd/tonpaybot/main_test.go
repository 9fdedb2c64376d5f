package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/tonpaybot/internal/config"
	dispatcherConfig "github.com/iurnickita/tonpaybot/internal/dispatcher/config"
	handlerConfig "github.com/iurnickita/tonpaybot/internal/handler/config"
	loggerConfig "github.com/iurnickita/tonpaybot/internal/logger/config"
	telegramConfig "github.com/iurnickita/tonpaybot/internal/telegram/config"
	tonclientConfig "github.com/iurnickita/tonpaybot/internal/tonclient/config"
	watcherConfig "github.com/iurnickita/tonpaybot/internal/watcher/config"
)

// Ошибка запуска сервера завершает весь процесс:
// наблюдатель не должен остаться работать без вебхука
func TestRunExitsOnServerError(t *testing.T) {
	// занимаем адрес, чтобы ListenAndServe упал сразу
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// заглушка toncenter, чтобы цикл опроса крутился
	ton := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "result": []}`))
	}))
	defer ton.Close()

	cfg := config.Config{
		Handler: handlerConfig.Config{
			ServerAddr:   ln.Addr().String(),
			Workers:      1,
			QueueSize:    1,
			DrainTimeout: time.Second,
		},
		Logger: loggerConfig.Config{LogLevel: "error"},
		Telegram: telegramConfig.Config{
			APIAddr:  "http://127.0.0.1:0",
			BotToken: "token",
			Timeout:  time.Second,
		},
		TonClient: tonclientConfig.Config{APIAddr: ton.URL, Timeout: time.Second},
		Dispatcher: dispatcherConfig.Config{
			WatchAddress: "EQtest-wallet",
			RequestTTL:   time.Minute,
		},
		Watcher: watcherConfig.Config{
			Addresses:    []string{"EQtest-wallet"},
			PollInterval: 10 * time.Millisecond,
			PageSize:     10,
		},
	}

	done := make(chan error, 1)
	go func() { done <- run(cfg) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not exit after server startup error")
	}
}
