package tonclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iurnickita/tonpaybot/internal/model"
	"github.com/iurnickita/tonpaybot/internal/tonclient/config"
)

// Клиент toncenter /api/v2. Порядок транзакций в ответе не гарантируется

type TonClient interface {
	GetTransactions(ctx context.Context, address string, limit int) ([]model.Transaction, error)
	GetAddressInfo(ctx context.Context, address string) (AddressInfo, error)
}

type AddressInfo struct {
	BalanceNano int64
	State       string
}

type tonClient struct {
	cfg    config.Config
	client *resty.Client
}

func NewTonClient(cfg config.Config) TonClient {
	client := resty.New()
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &tonClient{cfg: cfg, client: client}
}

// Конверт ответа toncenter
type apiResponse struct {
	Ok     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

type transactionJSON struct {
	TransactionID struct {
		LT   string `json:"lt"`
		Hash string `json:"hash"`
	} `json:"transaction_id"`
	Utime int64 `json:"utime"`
	InMsg struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		Value       string `json:"value"`
		Message     string `json:"message"`
	} `json:"in_msg"`
}

type addressInfoJSON struct {
	Balance string `json:"balance"`
	State   string `json:"state"`
}

func (client *tonClient) GetTransactions(ctx context.Context, address string, limit int) ([]model.Transaction, error) {
	result, err := client.get(ctx, "/getTransactions", map[string]string{
		"address": address,
		"limit":   strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}

	var txsJSON []transactionJSON
	if err := json.Unmarshal(result, &txsJSON); err != nil {
		return nil, fmt.Errorf("toncenter transactions: %w", err)
	}

	txs := make([]model.Transaction, 0, len(txsJSON))
	for _, txJSON := range txsJSON {
		lt, err := strconv.ParseUint(txJSON.TransactionID.LT, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("toncenter transaction lt %q: %w", txJSON.TransactionID.LT, err)
		}
		// value пустой у транзакций без входящего сообщения
		var value int64
		if txJSON.InMsg.Value != "" {
			value, err = strconv.ParseInt(txJSON.InMsg.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("toncenter transaction value %q: %w", txJSON.InMsg.Value, err)
			}
		}
		txs = append(txs, model.Transaction{
			Hash:        txJSON.TransactionID.Hash,
			LT:          lt,
			Source:      txJSON.InMsg.Source,
			Destination: txJSON.InMsg.Destination,
			ValueNano:   value,
			Comment:     txJSON.InMsg.Message,
			Timestamp:   time.Unix(txJSON.Utime, 0),
		})
	}
	return txs, nil
}

func (client *tonClient) GetAddressInfo(ctx context.Context, address string) (AddressInfo, error) {
	result, err := client.get(ctx, "/getAddressInformation", map[string]string{
		"address": address,
	})
	if err != nil {
		return AddressInfo{}, err
	}

	var infoJSON addressInfoJSON
	if err := json.Unmarshal(result, &infoJSON); err != nil {
		return AddressInfo{}, fmt.Errorf("toncenter address info: %w", err)
	}
	balance, err := strconv.ParseInt(infoJSON.Balance, 10, 64)
	if err != nil {
		return AddressInfo{}, fmt.Errorf("toncenter balance %q: %w", infoJSON.Balance, err)
	}
	return AddressInfo{BalanceNano: balance, State: infoJSON.State}, nil
}

func (client *tonClient) get(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	setreq := client.client.R()
	setreq.Method = http.MethodGet
	setreq.URL = client.cfg.APIAddr + path
	setreq.SetContext(ctx)
	setreq.SetQueryParams(params)
	if client.cfg.APIKey != "" {
		setreq.SetHeader("X-API-Key", client.cfg.APIKey)
	}
	setresp, err := setreq.Send()
	if err != nil {
		return nil, err
	}

	switch setresp.StatusCode() {
	case http.StatusOK:
		var answer apiResponse
		if err := json.Unmarshal(setresp.Body(), &answer); err != nil {
			return nil, fmt.Errorf("toncenter response: %w", err)
		}
		if !answer.Ok {
			return nil, fmt.Errorf("toncenter api error: %s", answer.Error)
		}
		return answer.Result, nil
	default:
		return nil, fmt.Errorf("toncenter request status: %d", setresp.StatusCode())
	}
}
