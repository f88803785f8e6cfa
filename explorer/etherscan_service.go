package explorer

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/kelvinjuma/invest_portal/configs"
)

// EVM chains are queried through Etherscan-compatible proxy APIs, which
// all share the same request and response shapes.
type evmEndpoint struct {
	urlEnv     string
	keyEnv     string
	defaultURL string
}

var evmEndpoints = map[string]evmEndpoint{
	"eth":     {"ETHERSCAN_API_URL", "ETHERSCAN_API_KEY", "https://api.etherscan.io"},
	"bsc":     {"BSCSCAN_API_URL", "BSCSCAN_API_KEY", "https://api.bscscan.com"},
	"polygon": {"POLYGONSCAN_API_URL", "POLYGONSCAN_API_KEY", "https://api.polygonscan.com"},
}

type proxyTxResponse struct {
	Result *struct {
		From        string `json:"from"`
		To          string `json:"to"`
		Value       string `json:"value"`
		BlockNumber string `json:"blockNumber"`
	} `json:"result"`
}

type proxyStringResponse struct {
	Result string `json:"result"`
}

type proxyReceiptResponse struct {
	Result *struct {
		Status string `json:"status"`
	} `json:"result"`
}

type proxyBlockResponse struct {
	Result *struct {
		Timestamp string `json:"timestamp"`
	} `json:"result"`
}

func lookupEVMTransaction(chain, txRef string) Result {
	ep, ok := evmEndpoints[chain]
	if !ok {
		return inconclusive("no explorer endpoint for chain " + chain)
	}
	base := config.ConfigOr(ep.urlEnv, ep.defaultURL)
	apiKey := config.Config(ep.keyEnv)

	var txResp proxyTxResponse
	if err := getProxyJSON(base, apiKey, url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionByHash"},
		"txhash": {txRef},
	}, &txResp); err != nil {
		log.Printf("Explorer lookup failed for %s tx %s: %v", chain, txRef, err)
		return inconclusive(err.Error())
	}
	if txResp.Result == nil {
		return notFound("transaction not found on " + chain)
	}
	if txResp.Result.BlockNumber == "" {
		// Still in the mempool.
		return found(&TxInfo{
			From:    strings.ToLower(txResp.Result.From),
			To:      strings.ToLower(txResp.Result.To),
			Value:   weiToNative(txResp.Result.Value),
			Pending: true,
		})
	}

	txBlock, err := parseHexUint(txResp.Result.BlockNumber)
	if err != nil {
		return inconclusive("bad block number in explorer response")
	}

	var headResp proxyStringResponse
	if err := getProxyJSON(base, apiKey, url.Values{
		"module": {"proxy"},
		"action": {"eth_blockNumber"},
	}, &headResp); err != nil {
		return inconclusive(err.Error())
	}
	head, err := parseHexUint(headResp.Result)
	if err != nil {
		return inconclusive("bad head block in explorer response")
	}

	var receiptResp proxyReceiptResponse
	if err := getProxyJSON(base, apiKey, url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionReceipt"},
		"txhash": {txRef},
	}, &receiptResp); err != nil {
		return inconclusive(err.Error())
	}

	var blockResp proxyBlockResponse
	if err := getProxyJSON(base, apiKey, url.Values{
		"module":  {"proxy"},
		"action":  {"eth_getBlockByNumber"},
		"tag":     {txResp.Result.BlockNumber},
		"boolean": {"false"},
	}, &blockResp); err != nil {
		return inconclusive(err.Error())
	}

	info := &TxInfo{
		From:  strings.ToLower(txResp.Result.From),
		To:    strings.ToLower(txResp.Result.To),
		Value: weiToNative(txResp.Result.Value),
	}
	if head >= txBlock {
		info.Confirmations = int64(head-txBlock) + 1
	}
	if receiptResp.Result != nil {
		info.Success = receiptResp.Result.Status == "0x1"
	}
	if blockResp.Result != nil {
		if ts, err := parseHexUint(blockResp.Result.Timestamp); err == nil {
			info.Timestamp = time.Unix(int64(ts), 0)
		}
	}

	return found(info)
}

func getProxyJSON(base, apiKey string, params url.Values, out interface{}) error {
	if apiKey != "" {
		params.Set("apikey", apiKey)
	}

	resp, err := httpClient.Get(base + "/api?" + params.Encode())
	if err != nil {
		return fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer returned status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read explorer response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse explorer response: %w", err)
	}
	return nil
}

func parseHexUint(s string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(s, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex quantity %q", s)
	}
	return n.Uint64(), nil
}

// weiToNative converts a hex wei quantity to native units. Precision
// loss past float64 is acceptable here; the tolerance check allows ±5%.
func weiToNative(hexWei string) float64 {
	wei := new(big.Int)
	if _, ok := wei.SetString(strings.TrimPrefix(hexWei, "0x"), 16); !ok {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}
