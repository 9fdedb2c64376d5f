package config

import "time"

type Config struct {
	Addresses    []string      // отслеживаемые кошельки
	PollInterval time.Duration // пауза между циклами опроса
	PageSize     int           // размер страницы getTransactions
}
