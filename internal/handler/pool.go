package handler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/tonpaybot/internal/dispatcher"
	"github.com/iurnickita/tonpaybot/internal/model"
)

// Ограниченный пул диспетчеризации: прием вебхука никогда не ждет
// обработчиков. Переполнение очереди - сброс обновления с записью в лог

type dispatchPool struct {
	queue  chan model.Update
	wg     sync.WaitGroup
	disp   dispatcher.Dispatcher
	zaplog *zap.Logger
}

func newDispatchPool(disp dispatcher.Dispatcher, workers int, queueSize int, zaplog *zap.Logger) *dispatchPool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}

	pool := &dispatchPool{
		queue:  make(chan model.Update, queueSize),
		disp:   disp,
		zaplog: zaplog,
	}
	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (pool *dispatchPool) worker() {
	defer pool.wg.Done()
	for update := range pool.queue {
		pool.disp.Dispatch(context.Background(), update)
	}
}

// Enqueue не блокирует: при полной очереди возвращает false
func (pool *dispatchPool) Enqueue(update model.Update) bool {
	select {
	case pool.queue <- update:
		return true
	default:
		return false
	}
}

// Shutdown закрывает очередь и ждет доработки воркеров,
// но не дольше timeout
func (pool *dispatchPool) Shutdown(timeout time.Duration) {
	close(pool.queue)

	done := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		pool.zaplog.Warn("dispatch pool drain timeout", zap.Duration("timeout", timeout))
	}
}
