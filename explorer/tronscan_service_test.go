package explorer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTronHash = "9f8b2c1d5a0e3f7b6c4d8a9e1f2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b"

func TestLookupTransaction_TronSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transaction-info", r.URL.Path)
		assert.Equal(t, testTronHash, r.URL.Query().Get("hash"))
		w.Header().Set("Content-Type", "application/json")
		// 2,500 TRX in sun, confirmed with 19 confirmations.
		w.Write([]byte(`{
			"hash": "` + testTronHash + `",
			"ownerAddress": "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
			"toAddress": "TKQpQyeu8MYLsQ3bnXHAFnrHCSKFGGGbnZ",
			"confirmed": true,
			"confirmations": 19,
			"contractRet": "SUCCESS",
			"timestamp": 1756500000000,
			"contractData": {"amount": 2500000000}
		}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	require.NotNil(t, res.Tx)
	assert.Equal(t, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", res.Tx.From)
	assert.Equal(t, "TKQpQyeu8MYLsQ3bnXHAFnrHCSKFGGGbnZ", res.Tx.To)
	assert.InDelta(t, 2500.0, res.Tx.Value, 1e-9)
	assert.Equal(t, int64(19), res.Tx.Confirmations)
	assert.True(t, res.Tx.Success)
	assert.Equal(t, time.UnixMilli(1756500000000), res.Tx.Timestamp)
}

func TestLookupTransaction_TronRevertedContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hash": "` + testTronHash + `", "confirmed": true, "contractRet": "REVERT", "contractData": {"amount": 1000000}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.False(t, res.Tx.Success)
	assert.False(t, res.Tx.Pending)
	assert.Equal(t, int64(1), res.Tx.Confirmations, "confirmed flag counts as one confirmation")
}

func TestLookupTransaction_TronUnconfirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hash": "` + testTronHash + `", "confirmed": false, "confirmations": 0, "contractRet": "SUCCESS", "contractData": {"amount": 1000000}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.True(t, res.Tx.Pending)
	assert.Zero(t, res.Tx.Confirmations)
}

func TestLookupTransaction_TronNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Tronscan answers unknown hashes with an empty object.
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Tx)
}

func TestLookupTransaction_TronServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.Contains(t, res.Detail, "explorer returned status")
}

func TestLookupTransaction_TronMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TRONSCAN_API_URL", srv.URL)

	res := LookupTransaction("tron", testTronHash)

	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.Equal(t, "failed to parse explorer response", res.Detail)
}
