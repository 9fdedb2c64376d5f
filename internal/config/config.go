package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	dispatcherConfig "github.com/iurnickita/tonpaybot/internal/dispatcher/config"
	handlerConfig "github.com/iurnickita/tonpaybot/internal/handler/config"
	loggerConfig "github.com/iurnickita/tonpaybot/internal/logger/config"
	telegramConfig "github.com/iurnickita/tonpaybot/internal/telegram/config"
	tonclientConfig "github.com/iurnickita/tonpaybot/internal/tonclient/config"
	watcherConfig "github.com/iurnickita/tonpaybot/internal/watcher/config"
)

type Config struct {
	Handler    handlerConfig.Config
	Dispatcher dispatcherConfig.Config
	Watcher    watcherConfig.Config
	TonClient  tonclientConfig.Config
	Telegram   telegramConfig.Config
	Logger     loggerConfig.Config
}

// GetConfig читает флаги, переменные окружения имеют приоритет
func GetConfig(args []string) Config {
	var cfg Config

	fs := flag.NewFlagSet("tonpaybot", flag.ExitOnError)
	serverAddr := fs.String("a", ":8080", "server address")
	logLevel := fs.String("l", "info", "log level")
	botToken := fs.String("t", "", "telegram bot token")
	tonAPIAddr := fs.String("ton-api", "https://toncenter.com/api/v2", "toncenter api address")
	tonAPIKey := fs.String("ton-key", "", "toncenter api key")
	watchAddress := fs.String("w", "", "watched wallet address")
	pollInterval := fs.Int("p", 30, "poll interval, seconds")
	requestTTL := fs.Int("ttl", 1800, "payment request ttl, seconds")
	pageSize := fs.Int("page", 10, "transactions page size")
	fs.Parse(args)

	envOverride(serverAddr, "RUN_ADDRESS")
	envOverride(logLevel, "LOG_LEVEL")
	envOverride(botToken, "BOT_TOKEN")
	envOverride(tonAPIAddr, "TON_API_ADDRESS")
	envOverride(tonAPIKey, "TON_API_KEY")
	envOverride(watchAddress, "WATCH_ADDRESS")
	envOverrideInt(pollInterval, "POLL_INTERVAL")
	envOverrideInt(requestTTL, "REQUEST_TTL")
	envOverrideInt(pageSize, "PAGE_SIZE")

	cfg.Handler = handlerConfig.Config{
		ServerAddr:   *serverAddr,
		Workers:      4,
		QueueSize:    64,
		DrainTimeout: 5 * time.Second,
	}
	cfg.Logger = loggerConfig.Config{LogLevel: *logLevel}
	cfg.Telegram = telegramConfig.Config{
		APIAddr:  "https://api.telegram.org",
		BotToken: *botToken,
		Timeout:  10 * time.Second,
	}
	cfg.TonClient = tonclientConfig.Config{
		APIAddr: *tonAPIAddr,
		APIKey:  *tonAPIKey,
		Timeout: 10 * time.Second,
	}
	cfg.Dispatcher = dispatcherConfig.Config{
		WatchAddress: *watchAddress,
		RequestTTL:   time.Duration(*requestTTL) * time.Second,
	}
	// без адреса кошелька наблюдать нечего
	var addresses []string
	if *watchAddress != "" {
		addresses = append(addresses, *watchAddress)
	}
	cfg.Watcher = watcherConfig.Config{
		Addresses:    addresses,
		PollInterval: time.Duration(*pollInterval) * time.Second,
		PageSize:     *pageSize,
	}

	return cfg
}

func envOverride(value *string, key string) {
	if env := os.Getenv(key); env != "" {
		*value = env
	}
}

func envOverrideInt(value *int, key string) {
	if env := os.Getenv(key); env != "" {
		if parsed, err := strconv.Atoi(env); err == nil {
			*value = parsed
		}
	}
}
