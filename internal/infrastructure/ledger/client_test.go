package ledger_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) application.Ledger {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ledger.NewLedgerClient(config.LedgerConfig{BaseURL: srv.URL, ConnTimeout: 5 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestLedgerClient_VerifyToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/tokens/verify/", r.URL.Path)
		assert.Equal(t, "Token admin-token", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin-token", body["token"])

		writeJSON(w, http.StatusOK, `{"status":"success","data":{
			"id":"0b4c3d6e-8c1b-4a59-9d63-4c3a4a0f1e11",
			"email":"owner@acme.test",
			"company":"acme",
			"groups":[{"name":"admin"}],
			"verification":{"email":true}
		}}`)
	}))

	identity, err := client.VerifyToken(context.Background(), "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "acme", identity.Company)
	assert.Equal(t, []string{"admin"}, identity.Groups)
	assert.True(t, identity.EmailVerified)
	assert.True(t, identity.InGroup("admin"))
}

func TestLedgerClient_VerifyToken_Rejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"status":"error","message":"Invalid token."}`)
	}))

	_, err := client.VerifyToken(context.Background(), "nope")
	require.Error(t, err)

	ledgerErr, ok := application.IsLedgerError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, ledgerErr.StatusCode)
	assert.Equal(t, "Invalid token.", ledgerErr.Message)
	assert.False(t, ledgerErr.IsRetryable())
}

func TestLedgerClient_ListCurrencies_FollowsPages(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/currencies/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, `{"status":"success","data":{"next":null,"results":[
				{"code":"USD","display_code":"USD","description":"US Dollar","symbol":"$","unit":"dollar","divisibility":2}
			]}}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"status":"success","data":{"next":"%s/admin/currencies/?page=2","results":[
			{"code":"BTC","display_code":"BTC","description":"Bitcoin","symbol":"B","unit":"bitcoin","divisibility":8}
		]}}`, srvURL))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL

	client := ledger.NewLedgerClient(config.LedgerConfig{BaseURL: srv.URL, ConnTimeout: 5 * time.Second})

	currencies, err := client.ListCurrencies(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.Equal(t, "BTC", currencies[0].Code)
	assert.Equal(t, 8, currencies[0].Divisibility)
	assert.Equal(t, "USD", currencies[1].Code)
	assert.Equal(t, "$", currencies[1].Symbol)
}

func TestLedgerClient_Subtypes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/subtypes/", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, `{"status":"success","data":[{"id":4,"name":"deposit_bank","tx_type":"credit"}]}`)
		case http.MethodPost:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "deposit_stripe", body["name"])
			assert.Equal(t, "credit", body["tx_type"])
			writeJSON(w, http.StatusCreated, `{"status":"success","data":{"id":9,"name":"deposit_stripe","tx_type":"credit"}}`)
		}
	}))

	subtypes, err := client.ListSubtypes(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, subtypes, 1)
	assert.Equal(t, "4", subtypes[0].ID)

	created, err := client.CreateSubtype(context.Background(), "tok", application.CreateSubtypeRequest{
		Name:   "deposit_stripe",
		TxType: "credit",
	})
	require.NoError(t, err)
	assert.Equal(t, "9", created.ID)
}

func TestLedgerClient_CreateTransactionCollection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/transaction-collections/", r.URL.Path)

		var body struct {
			Transactions []struct {
				User     string            `json:"user"`
				Amount   int64             `json:"amount"`
				Currency string            `json:"currency"`
				Status   string            `json:"status"`
				Subtype  string            `json:"subtype"`
				TxType   string            `json:"tx_type"`
				Metadata map[string]string `json:"metadata"`
			} `json:"transactions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Transactions, 1)
		tx := body.Transactions[0]
		assert.Equal(t, int64(1000), tx.Amount)
		assert.Equal(t, "deposit_stripe", tx.Subtype)
		assert.Equal(t, "credit", tx.TxType)
		assert.Equal(t, "complete", tx.Status)
		assert.Equal(t, "pi_123", tx.Metadata["stripe_payment_intent"])

		writeJSON(w, http.StatusCreated, `{"status":"success","data":{"id":"col_1","transactions":[{"id":"tx_1"}]}}`)
	}))

	collection, err := client.CreateTransactionCollection(context.Background(), "tok", application.TransactionCollectionRequest{
		Transactions: []application.LedgerTransaction{{
			User:     "user-1",
			Amount:   1000,
			Currency: "USD",
			Status:   "complete",
			Subtype:  "deposit_stripe",
			TxType:   "credit",
			Metadata: map[string]string{"stripe_payment_intent": "pi_123"},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "col_1", collection.ID)
	assert.Equal(t, []string{"tx_1"}, collection.Transactions)
}

func TestLedgerClient_ServerErrorIsRetryable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.ListSubtypes(context.Background(), "tok")
	ledgerErr, ok := application.IsLedgerError(err)
	require.True(t, ok)
	assert.True(t, ledgerErr.IsRetryable())
	assert.Equal(t, "Bad Gateway", ledgerErr.Message)
}
