package tonclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/tonpaybot/internal/tonclient/config"
)

const transactionsAnswer = `{
	"ok": true,
	"result": [
		{
			"transaction_id": {"lt": "101", "hash": "hash-later"},
			"utime": 1700000100,
			"in_msg": {
				"source": "EQsender",
				"destination": "EQwallet",
				"value": "400000000",
				"message": ""
			}
		},
		{
			"transaction_id": {"lt": "100", "hash": "hash-abc"},
			"utime": 1700000000,
			"in_msg": {
				"source": "EQsender",
				"destination": "EQwallet",
				"value": "500000000",
				"message": "LEVEL1_42"
			}
		}
	]
}`

func TestGetTransactions(t *testing.T) {
	var gotPath, gotAddress, gotLimit, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAddress = r.URL.Query().Get("address")
		gotLimit = r.URL.Query().Get("limit")
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(transactionsAnswer))
	}))
	defer srv.Close()

	client := NewTonClient(config.Config{APIAddr: srv.URL, APIKey: "secret", Timeout: time.Second})

	txs, err := client.GetTransactions(context.Background(), "EQwallet", 10)
	require.NoError(t, err)

	require.Equal(t, "/getTransactions", gotPath)
	require.Equal(t, "EQwallet", gotAddress)
	require.Equal(t, "10", gotLimit)
	require.Equal(t, "secret", gotKey)

	// порядок как отдал API, клиент не переупорядочивает
	require.Len(t, txs, 2)
	require.Equal(t, uint64(101), txs[0].LT)
	require.Equal(t, "hash-later", txs[0].Hash)
	require.Equal(t, int64(400000000), txs[0].ValueNano)
	require.Equal(t, uint64(100), txs[1].LT)
	require.Equal(t, "LEVEL1_42", txs[1].Comment)
	require.Equal(t, "EQwallet", txs[1].Destination)
	require.Equal(t, time.Unix(1700000000, 0), txs[1].Timestamp)
}

func TestGetTransactionsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "error": "invalid address"}`))
	}))
	defer srv.Close()

	client := NewTonClient(config.Config{APIAddr: srv.URL, Timeout: time.Second})

	_, err := client.GetTransactions(context.Background(), "bad", 10)
	require.ErrorContains(t, err, "invalid address")
}

func TestGetTransactionsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewTonClient(config.Config{APIAddr: srv.URL, Timeout: time.Second})

	_, err := client.GetTransactions(context.Background(), "EQwallet", 10)
	require.ErrorContains(t, err, "502")
}

func TestGetTransactionsBadSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": true, "result": [{"transaction_id": {"lt": "not-a-number", "hash": "x"}}]}`))
	}))
	defer srv.Close()

	client := NewTonClient(config.Config{APIAddr: srv.URL, Timeout: time.Second})

	_, err := client.GetTransactions(context.Background(), "EQwallet", 10)
	require.Error(t, err)
}

func TestGetAddressInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/getAddressInformation", r.URL.Path)
		w.Write([]byte(`{"ok": true, "result": {"balance": "1500000000", "state": "active"}}`))
	}))
	defer srv.Close()

	client := NewTonClient(config.Config{APIAddr: srv.URL, Timeout: time.Second})

	info, err := client.GetAddressInfo(context.Background(), "EQwallet")
	require.NoError(t, err)
	require.Equal(t, int64(1500000000), info.BalanceNano)
	require.Equal(t, "active", info.State)
}
