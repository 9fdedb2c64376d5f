package config

import "time"

type Config struct {
	WatchAddress string        // кошелек, на который принимается оплата
	RequestTTL   time.Duration // срок жизни заявки
}
