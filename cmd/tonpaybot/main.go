package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/iurnickita/tonpaybot/internal/config"
	"github.com/iurnickita/tonpaybot/internal/dispatcher"
	"github.com/iurnickita/tonpaybot/internal/handler"
	"github.com/iurnickita/tonpaybot/internal/logger"
	"github.com/iurnickita/tonpaybot/internal/registry"
	"github.com/iurnickita/tonpaybot/internal/telegram"
	"github.com/iurnickita/tonpaybot/internal/tonclient"
	"github.com/iurnickita/tonpaybot/internal/watcher"
)

func main() {
	if err := run(config.GetConfig(os.Args[1:])); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}

	reg := registry.NewRegistry(zaplog)
	ton := tonclient.NewTonClient(cfg.TonClient)
	gateway := telegram.NewGateway(cfg.Telegram)
	disp := dispatcher.NewDispatcher(cfg.Dispatcher, reg, gateway, ton, zaplog)
	watch := watcher.NewWatcher(cfg.Watcher, ton, reg, gateway, zaplog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watch.Run(ctx)
	}()

	err = handler.Serve(ctx, cfg.Handler, disp, zaplog)

	// остановка сервера, штатная или аварийная, останавливает и опрос:
	// без вебхука процессу жить незачем
	stop()

	// циклы опроса дорабатывают текущий цикл и выходят
	wg.Wait()
	return err
}
