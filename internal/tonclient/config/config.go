package config

import "time"

type Config struct {
	APIAddr string        // toncenter, например https://toncenter.com/api/v2
	APIKey  string        // опционально
	Timeout time.Duration // таймаут одного запроса
}
