package explorer

import (
	"net/http"
	"time"
)

// Outcome classifies a chain lookup. Transport failures, timeouts and
// unparsable responses all collapse into OutcomeInconclusive so a flaky
// explorer can never fail a request outright; the payment just falls to
// manual review.
type Outcome string

const (
	OutcomeFound        Outcome = "found"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeInconclusive Outcome = "inconclusive"
)

// TxInfo is the subset of on-chain transaction data the verification
// checklist needs. Value is in native units (ETH, BNB, POL, TRX).
type TxInfo struct {
	From          string
	To            string
	Value         float64
	Confirmations int64
	Success       bool
	// Pending marks a transaction that exists but has not been mined
	// yet, so Success and Confirmations carry no meaning.
	Pending   bool
	Timestamp time.Time
}

type Result struct {
	Outcome Outcome
	Tx      *TxInfo
	Detail  string
}

func found(tx *TxInfo) Result {
	return Result{Outcome: OutcomeFound, Tx: tx}
}

func notFound(detail string) Result {
	return Result{Outcome: OutcomeNotFound, Detail: detail}
}

func inconclusive(detail string) Result {
	return Result{Outcome: OutcomeInconclusive, Detail: detail}
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// IsEVMChain reports whether the chain uses the Etherscan-style API.
func IsEVMChain(chain string) bool {
	switch chain {
	case "eth", "bsc", "polygon":
		return true
	}
	return false
}

// IsTronChain reports whether the chain uses the Tronscan-style API.
func IsTronChain(chain string) bool {
	return chain == "tron"
}

// SupportedChain reports whether a lookup client exists for the chain.
func SupportedChain(chain string) bool {
	return IsEVMChain(chain) || IsTronChain(chain)
}

// LookupTransaction fetches a transaction from the public explorer of
// the given chain. It never returns an error; anything short of a clean
// parse is reported as inconclusive.
func LookupTransaction(chain, txRef string) Result {
	switch {
	case IsEVMChain(chain):
		return lookupEVMTransaction(chain, txRef)
	case IsTronChain(chain):
		return lookupTronTransaction(txRef)
	default:
		return inconclusive("no explorer client for chain " + chain)
	}
}
