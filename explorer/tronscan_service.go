package explorer

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	config "github.com/kelvinjuma/invest_portal/configs"
)

const defaultTronscanURL = "https://apilist.tronscanapi.com"

type tronscanTxResponse struct {
	Hash          string `json:"hash"`
	OwnerAddress  string `json:"ownerAddress"`
	ToAddress     string `json:"toAddress"`
	Confirmed     bool   `json:"confirmed"`
	Confirmations int64  `json:"confirmations"`
	ContractRet   string `json:"contractRet"`
	Timestamp     int64  `json:"timestamp"`
	ContractData  struct {
		Amount int64 `json:"amount"`
	} `json:"contractData"`
}

func lookupTronTransaction(txRef string) Result {
	base := config.ConfigOr("TRONSCAN_API_URL", defaultTronscanURL)

	params := url.Values{"hash": {txRef}}
	req, err := http.NewRequest("GET", base+"/api/transaction-info?"+params.Encode(), nil)
	if err != nil {
		return inconclusive(err.Error())
	}
	if apiKey := config.Config("TRONSCAN_API_KEY"); apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("Tronscan lookup failed for tx %s: %v", txRef, err)
		return inconclusive(fmt.Sprintf("explorer request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return inconclusive(fmt.Sprintf("explorer returned status %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return inconclusive("failed to read explorer response")
	}

	var tx tronscanTxResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return inconclusive("failed to parse explorer response")
	}
	if tx.Hash == "" {
		return notFound("transaction not found on tron")
	}

	info := &TxInfo{
		From:          tx.OwnerAddress,
		To:            tx.ToAddress,
		Value:         float64(tx.ContractData.Amount) / 1e6, // sun -> TRX
		Confirmations: tx.Confirmations,
		Success:       tx.ContractRet == "SUCCESS",
		Pending:       !tx.Confirmed && tx.Confirmations == 0,
	}
	if tx.Timestamp > 0 {
		info.Timestamp = time.UnixMilli(tx.Timestamp)
	}
	if info.Confirmations == 0 && tx.Confirmed {
		info.Confirmations = 1
	}

	return found(info)
}
