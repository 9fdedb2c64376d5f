package config

import "time"

type Config struct {
	APIAddr  string // https://api.telegram.org
	BotToken string
	Timeout  time.Duration
}
