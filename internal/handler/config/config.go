package config

import "time"

type Config struct {
	ServerAddr   string
	Workers      int           // воркеры пула диспетчеризации
	QueueSize    int           // емкость очереди пула
	DrainTimeout time.Duration // ожидание доработки пула при остановке
}
