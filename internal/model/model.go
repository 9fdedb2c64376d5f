package model

import "time"

// Входящее обновление от платформы сообщений

type Update struct {
	ID           int64
	Kind         string
	ChatID       int64
	UserID       int64
	Username     string
	Command      string
	Text         string
	CallbackID   string
	CallbackData string
}

const (
	UpdateKindCommand  = "COMMAND"
	UpdateKindCallback = "CALLBACK"
	UpdateKindText     = "TEXT"
	UpdateKindOther    = "OTHER"
)

// Заявка на оплату. match token (memo) уникален среди ожидающих заявок

type PaymentRequest struct {
	ID         string
	UserID     int64
	ChatID     int64
	Tier       string
	AmountNano int64
	MatchToken string
	Status     string
	TxHash     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

const (
	PaymentRequestStatusPending   = "PENDING"
	PaymentRequestStatusConfirmed = "CONFIRMED"
	PaymentRequestStatusExpired   = "EXPIRED"
)

// Транзакция на отслеживаемом кошельке. Суммы в nanoTON

type Transaction struct {
	Hash        string
	LT          uint64
	Source      string
	Destination string
	ValueNano   int64
	Comment     string
	Timestamp   time.Time
}

// Курсор просмотра истории адреса: последняя увиденная транзакция

type WatchCursor struct {
	LastLT   uint64
	LastHash string
}
