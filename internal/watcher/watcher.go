package watcher

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iurnickita/tonpaybot/internal/model"
	"github.com/iurnickita/tonpaybot/internal/registry"
	"github.com/iurnickita/tonpaybot/internal/telegram"
	"github.com/iurnickita/tonpaybot/internal/tonclient"
	"github.com/iurnickita/tonpaybot/internal/watcher/config"
)

// Наблюдатель за кошельками: опрашивает историю транзакций,
// сопоставляет поступления с заявками и двигает курсор.
// Курсор отмечает "увиденные" транзакции, а не "зачтенные"

type Watcher interface {
	Run(ctx context.Context) error
}

const (
	backoffInitial = 2 * time.Second
	backoffMax     = time.Minute
)

type watchState struct {
	address string
	cursor  model.WatchCursor
	backoff time.Duration
}

type watcher struct {
	cfg      config.Config
	client   tonclient.TonClient
	registry registry.Registry
	gateway  telegram.Gateway
	states   map[string]*watchState
	zaplog   *zap.Logger
}

func NewWatcher(cfg config.Config, client tonclient.TonClient, reg registry.Registry, gateway telegram.Gateway, zaplog *zap.Logger) Watcher {
	states := make(map[string]*watchState, len(cfg.Addresses))
	for _, address := range cfg.Addresses {
		states[address] = &watchState{address: address}
	}
	return &watcher{
		cfg:      cfg,
		client:   client,
		registry: reg,
		gateway:  gateway,
		states:   states,
		zaplog:   zaplog,
	}
}

// Run запускает независимый цикл опроса на каждый адрес
// и ждет их завершения. Останавливается только по отмене контекста,
// каждый цикл дорабатывает до конца
func (watcher *watcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, state := range watcher.states {
		wg.Add(1)
		go func(state *watchState) {
			defer wg.Done()
			watcher.watchAddress(ctx, state)
		}(state)
	}
	wg.Wait()
	return nil
}

func (watcher *watcher) watchAddress(ctx context.Context, state *watchState) {
	watcher.zaplog.Info("watch started", zap.String("address", state.address))

	// История до запуска процесса не зачитывается:
	// курсор выставляется на последнюю существующую транзакцию
	for {
		err := watcher.baseline(ctx, state)
		if err == nil {
			break
		}
		state.backoff = nextBackoff(state.backoff)
		watcher.zaplog.Error("baseline failed",
			zap.String("address", state.address),
			zap.Duration("backoff", state.backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(state.backoff):
		}
	}
	state.backoff = 0

	for {
		delay := watcher.cfg.PollInterval
		if err := watcher.pollAddress(ctx, state); err != nil {
			// курсор не тронут, то же окно будет перечитано
			state.backoff = nextBackoff(state.backoff)
			delay = state.backoff
			watcher.zaplog.Error("poll cycle failed",
				zap.String("address", state.address),
				zap.Duration("backoff", state.backoff),
				zap.Error(err),
			)
		} else {
			state.backoff = 0
		}

		select {
		case <-ctx.Done():
			watcher.zaplog.Info("watch stopped", zap.String("address", state.address))
			return
		case <-time.After(delay):
		}
	}
}

func (watcher *watcher) baseline(ctx context.Context, state *watchState) error {
	txs, err := watcher.client.GetTransactions(ctx, state.address, 1)
	if err != nil {
		return err
	}
	if len(txs) > 0 {
		state.cursor.LastLT = txs[0].LT
		state.cursor.LastHash = txs[0].Hash
	}
	watcher.zaplog.Info("cursor baselined",
		zap.String("address", state.address),
		zap.Uint64("lt", state.cursor.LastLT),
	)
	return nil
}

// Один цикл опроса: страница -> сортировка по lt -> отбрасывание
// увиденного -> сопоставление строго по возрастанию lt -> курсор
func (watcher *watcher) pollAddress(ctx context.Context, state *watchState) error {
	txs, err := watcher.client.GetTransactions(ctx, state.address, watcher.cfg.PageSize)
	if err != nil {
		return err
	}

	// API отдает новые первыми, но порядок контрактом не обещан
	sort.Slice(txs, func(i, j int) bool { return txs[i].LT < txs[j].LT })

	watcher.registry.SweepExpired(time.Now())

	for _, tx := range txs {
		if tx.LT <= state.cursor.LastLT {
			continue
		}
		watcher.matchTransaction(ctx, state.address, tx)
		// курсор двигается и по незачтенным транзакциям
		state.cursor.LastLT = tx.LT
		state.cursor.LastHash = tx.Hash
	}
	return nil
}

func (watcher *watcher) matchTransaction(ctx context.Context, address string, tx model.Transaction) {
	if tx.Destination != address {
		return
	}
	if tx.ValueNano <= 0 {
		return
	}

	// основная стратегия - точное совпадение по memo и сумме
	if token := strings.TrimSpace(tx.Comment); token != "" {
		request, ok := watcher.registry.FindByToken(token)
		if !ok {
			watcher.zaplog.Info("unknown memo",
				zap.String("hash", tx.Hash),
				zap.String("memo", token),
			)
			return
		}
		if request.AmountNano != tx.ValueNano {
			watcher.zaplog.Warn("amount mismatch",
				zap.String("hash", tx.Hash),
				zap.String("memo", token),
				zap.Int64("expected_nano", request.AmountNano),
				zap.Int64("got_nano", tx.ValueNano),
			)
			return
		}
		watcher.credit(ctx, request, tx)
		return
	}

	// без memo - однозначное совпадение по сумме
	candidates := watcher.registry.FindByAmount(tx.ValueNano)
	switch len(candidates) {
	case 0:
	case 1:
		watcher.credit(ctx, candidates[0], tx)
	default:
		// кого зачесть - неизвестно, не угадываем
		watcher.zaplog.Warn("match ambiguity",
			zap.String("hash", tx.Hash),
			zap.Int64("value_nano", tx.ValueNano),
			zap.Int("candidates", len(candidates)),
		)
	}
}

func (watcher *watcher) credit(ctx context.Context, request model.PaymentRequest, tx model.Transaction) {
	if !watcher.registry.Confirm(request.ID, tx.Hash) {
		return
	}
	text := "Оплата получена: " + telegram.FormatTON(tx.ValueNano) +
		". Доступ " + request.Tier + " активирован."
	if err := watcher.gateway.SendMessage(ctx, request.ChatID, text, nil); err != nil {
		// уведомление не блокирует ни курсор, ни статус заявки
		watcher.zaplog.Error("send confirmation",
			zap.Int64("user", request.UserID),
			zap.String("request_id", request.ID),
			zap.Error(err),
		)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return backoffInitial
	}
	next := current * 2
	if next > backoffMax {
		return backoffMax
	}
	return next
}
