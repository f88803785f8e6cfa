package explorer

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxHash = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

// newProxyServer serves canned Etherscan proxy responses keyed by the
// action query parameter.
func newProxyServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Query().Get("action")]
		if !ok {
			t.Errorf("unexpected proxy action %q", r.URL.Query().Get("action"))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLookupTransaction_EVMSuccess(t *testing.T) {
	srv := newProxyServer(t, map[string]string{
		// 1 ETH at block 0x64, head at 0x6e, mined and successful.
		"eth_getTransactionByHash":  `{"result":{"from":"0x8617E340B3D01FA5F11F306F4090FD50E238070D","to":"0x52908400098527886E0F7030069857D2E4169EE7","value":"0xde0b6b3a7640000","blockNumber":"0x64"}}`,
		"eth_blockNumber":           `{"result":"0x6e"}`,
		"eth_getTransactionReceipt": `{"result":{"status":"0x1"}}`,
		"eth_getBlockByNumber":      `{"result":{"timestamp":"0x68b21020"}}`,
	})
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	require.NotNil(t, res.Tx)
	assert.Equal(t, "0x8617e340b3d01fa5f11f306f4090fd50e238070d", res.Tx.From)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", res.Tx.To)
	assert.InDelta(t, 1.0, res.Tx.Value, 1e-12)
	assert.Equal(t, int64(11), res.Tx.Confirmations)
	assert.True(t, res.Tx.Success)
	assert.Equal(t, time.Unix(1756500000, 0), res.Tx.Timestamp)
}

func TestLookupTransaction_EVMFailedExecution(t *testing.T) {
	srv := newProxyServer(t, map[string]string{
		"eth_getTransactionByHash":  `{"result":{"from":"0x8617E340B3D01FA5F11F306F4090FD50E238070D","to":"0x52908400098527886E0F7030069857D2E4169EE7","value":"0xde0b6b3a7640000","blockNumber":"0x64"}}`,
		"eth_blockNumber":           `{"result":"0x6e"}`,
		"eth_getTransactionReceipt": `{"result":{"status":"0x0"}}`,
		"eth_getBlockByNumber":      `{"result":{"timestamp":"0x68b21020"}}`,
	})
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.False(t, res.Tx.Success)
}

func TestLookupTransaction_EVMMempool(t *testing.T) {
	srv := newProxyServer(t, map[string]string{
		"eth_getTransactionByHash": `{"result":{"from":"0x8617E340B3D01FA5F11F306F4090FD50E238070D","to":"0x52908400098527886E0F7030069857D2E4169EE7","value":"0xde0b6b3a7640000","blockNumber":""}}`,
	})
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	require.Equal(t, OutcomeFound, res.Outcome)
	assert.True(t, res.Tx.Pending)
	assert.Zero(t, res.Tx.Confirmations)
	assert.False(t, res.Tx.Success)
}

func TestLookupTransaction_EVMNotFound(t *testing.T) {
	srv := newProxyServer(t, map[string]string{
		"eth_getTransactionByHash": `{"result":null}`,
	})
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Nil(t, res.Tx)
}

func TestLookupTransaction_EVMServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.Contains(t, res.Detail, "explorer returned status")
}

func TestLookupTransaction_EVMMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>rate limited</html>"))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("ETHERSCAN_API_URL", srv.URL)

	res := LookupTransaction("eth", testTxHash)

	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.Contains(t, res.Detail, "failed to parse explorer response")
}

func TestLookupTransaction_UnsupportedChain(t *testing.T) {
	res := LookupTransaction("doge", testTxHash)
	assert.Equal(t, OutcomeInconclusive, res.Outcome)
}

func TestSupportedChain(t *testing.T) {
	for _, chain := range []string{"eth", "bsc", "polygon", "tron"} {
		assert.True(t, SupportedChain(chain), chain)
	}
	assert.False(t, SupportedChain("sol"))
}
