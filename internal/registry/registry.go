package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iurnickita/tonpaybot/internal/model"
)

type Registry interface {
	Create(userID int64, chatID int64, tier string, amountNano int64, ttl time.Duration) (model.PaymentRequest, error)
	FindByToken(token string) (model.PaymentRequest, bool)
	FindByAmount(amountNano int64) []model.PaymentRequest
	Confirm(id string, txHash string) bool
	SweepExpired(now time.Time) int
	Status(userID int64) []model.PaymentRequest
}

var (
	ErrInsufficientData       = errors.New("insufficient data")
	ErrDuplicateActiveRequest = errors.New("duplicate active request")
)

type registry struct {
	mu       sync.Mutex
	requests map[string]*model.PaymentRequest // id -> заявка
	tokens   map[string]string                // match token -> id, только ожидающие
	credited map[string]string                // хеш транзакции -> id зачтенной заявки
	zaplog   *zap.Logger
}

func NewRegistry(zaplog *zap.Logger) Registry {
	return &registry{
		requests: make(map[string]*model.PaymentRequest),
		tokens:   make(map[string]string),
		credited: make(map[string]string),
		zaplog:   zaplog,
	}
}

// Create регистрирует новую заявку на оплату.
// Токен детерминированный: "<tier>_<userID>", поэтому на пару (пользователь, уровень)
// может существовать только одна ожидающая заявка
func (registry *registry) Create(userID int64, chatID int64, tier string, amountNano int64, ttl time.Duration) (model.PaymentRequest, error) {
	if userID == 0 || tier == "" {
		return model.PaymentRequest{}, ErrInsufficientData
	}
	if amountNano <= 0 || ttl <= 0 {
		return model.PaymentRequest{}, ErrInsufficientData
	}

	token := fmt.Sprintf("%s_%d", tier, userID)
	now := time.Now()

	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.sweepLocked(now)

	if _, exists := registry.tokens[token]; exists {
		return model.PaymentRequest{}, ErrDuplicateActiveRequest
	}

	request := &model.PaymentRequest{
		ID:         uuid.NewString(),
		UserID:     userID,
		ChatID:     chatID,
		Tier:       tier,
		AmountNano: amountNano,
		MatchToken: token,
		Status:     model.PaymentRequestStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	registry.requests[request.ID] = request
	registry.tokens[token] = request.ID

	registry.zaplog.Info("payment request created",
		zap.String("id", request.ID),
		zap.Int64("user", userID),
		zap.String("token", token),
		zap.Int64("amount_nano", amountNano),
	)

	return *request, nil
}

// FindByToken возвращает ожидающую заявку по memo
func (registry *registry) FindByToken(token string) (model.PaymentRequest, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.sweepLocked(time.Now())

	id, ok := registry.tokens[token]
	if !ok {
		return model.PaymentRequest{}, false
	}
	return *registry.requests[id], true
}

// FindByAmount возвращает все ожидающие заявки с точной суммой.
// Больше одной - неоднозначность, решает вызывающий
func (registry *registry) FindByAmount(amountNano int64) []model.PaymentRequest {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.sweepLocked(time.Now())

	var found []model.PaymentRequest
	for _, id := range registry.tokens {
		request := registry.requests[id]
		if request.AmountNano == amountNano {
			found = append(found, *request)
		}
	}
	return found
}

// Confirm переводит заявку в CONFIRMED. Первый переход побеждает:
// повторное подтверждение, подтверждение истекшей заявки и повторное
// использование хеша транзакции - no-op с предупреждением в лог
func (registry *registry) Confirm(id string, txHash string) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	request, ok := registry.requests[id]
	if !ok {
		registry.zaplog.Warn("confirm: unknown payment request", zap.String("id", id))
		return false
	}
	if creditedID, used := registry.credited[txHash]; used {
		registry.zaplog.Warn("confirm: transaction already credited",
			zap.String("hash", txHash),
			zap.String("credited_id", creditedID),
		)
		return false
	}
	if request.Status != model.PaymentRequestStatusPending {
		registry.zaplog.Warn("confirm: payment request is terminal",
			zap.String("id", id),
			zap.String("status", request.Status),
			zap.String("hash", txHash),
		)
		return false
	}

	request.Status = model.PaymentRequestStatusConfirmed
	request.TxHash = txHash
	registry.credited[txHash] = id
	delete(registry.tokens, request.MatchToken)

	registry.zaplog.Info("payment request confirmed",
		zap.String("id", id),
		zap.Int64("user", request.UserID),
		zap.String("hash", txHash),
	)
	return true
}

// SweepExpired переводит просроченные ожидающие заявки в EXPIRED
func (registry *registry) SweepExpired(now time.Time) int {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	return registry.sweepLocked(now)
}

// под registry.mu
func (registry *registry) sweepLocked(now time.Time) int {
	count := 0
	for _, request := range registry.requests {
		if request.Status != model.PaymentRequestStatusPending {
			continue
		}
		if request.ExpiresAt.After(now) {
			continue
		}
		request.Status = model.PaymentRequestStatusExpired
		delete(registry.tokens, request.MatchToken)
		count++

		registry.zaplog.Info("payment request expired",
			zap.String("id", request.ID),
			zap.Int64("user", request.UserID),
			zap.String("token", request.MatchToken),
		)
	}
	return count
}

// Status возвращает заявки пользователя, новые в начале
func (registry *registry) Status(userID int64) []model.PaymentRequest {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.sweepLocked(time.Now())

	var list []model.PaymentRequest
	for _, request := range registry.requests {
		if request.UserID == userID {
			list = append(list, *request)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}
