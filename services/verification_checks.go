package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kelvinjuma/invest_portal/explorer"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/shopspring/decimal"
)

// CheckName identifies one verification check. The set is fixed; every
// snapshot accounts for exactly the checks that ran.
type CheckName string

// Basic-validation gate checks, each worth BasicCheckWeight points.
const (
	CheckCompanyAddressFormat CheckName = "company_address_format"
	CheckAmountRange          CheckName = "amount_range"
	CheckTxRefFormat          CheckName = "tx_ref_format"
	CheckSenderAddressFormat  CheckName = "sender_address_format"
	CheckSubmissionRecency    CheckName = "submission_recency"
)

// Blockchain-verification gate checks, evaluated in this order with the
// first failure short-circuiting the rest.
const (
	CheckDuplicateHash   CheckName = "duplicate_hash"
	CheckTxExists        CheckName = "tx_exists"
	CheckSenderMatch     CheckName = "sender_match"
	CheckRecipientMatch  CheckName = "recipient_match"
	CheckAmountTolerance CheckName = "amount_tolerance"
	CheckConfirmations   CheckName = "confirmations"
	CheckTxAge           CheckName = "tx_age"
)

type CheckResult struct {
	Name    CheckName `json:"name"`
	Passed  bool      `json:"passed"`
	Message string    `json:"message"`
}

const (
	BasicCheckWeight = 20
	BasicPassScore   = 60

	// FullPassConfidence is recorded when both gates pass in full; the
	// basic-gate score can sit below this while still clearing its
	// threshold.
	FullPassConfidence = 100

	MinDepositUSD = 50.0
	MaxDepositUSD = 1_000_000.0

	MinConfirmations = 3
	MaxTxAge         = 7 * 24 * time.Hour

	// Allowed deviation between the claimed USD amount and the USD
	// value derived from the on-chain transfer, boundary inclusive.
	amountTolerancePct = 5
)

var (
	evmAddressPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	evmTxRefPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	tronAddressPattern = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)
	tronTxRefPattern   = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// ValidAddressFormat reports whether addr is well formed for the chain.
func ValidAddressFormat(chain, addr string) bool {
	switch {
	case explorer.IsEVMChain(chain):
		return evmAddressPattern.MatchString(addr)
	case explorer.IsTronChain(chain):
		return tronAddressPattern.MatchString(addr)
	}
	return false
}

// ValidTxRefFormat reports whether ref looks like a transaction hash on
// the chain.
func ValidTxRefFormat(chain, ref string) bool {
	switch {
	case explorer.IsEVMChain(chain):
		return evmTxRefPattern.MatchString(ref)
	case explorer.IsTronChain(chain):
		return tronTxRefPattern.MatchString(ref)
	}
	return false
}

func addressesEqual(chain, a, b string) bool {
	if explorer.IsEVMChain(chain) {
		// EVM addresses are case-insensitive hex (EIP-55 casing is
		// only a checksum). Tron base58 addresses are case-sensitive.
		return strings.EqualFold(a, b)
	}
	return a == b
}

func check(name CheckName, passed bool, failMsg string) CheckResult {
	res := CheckResult{Name: name, Passed: passed}
	if !passed {
		res.Message = failMsg
	}
	return res
}

// RunBasicValidation scores the five weighted submission checks. All
// five always run; the gate passes at BasicPassScore or above.
func RunBasicValidation(p *models.PaymentRequest, now time.Time) (score int, checks []CheckResult) {
	checks = append(checks, check(CheckCompanyAddressFormat,
		ValidAddressFormat(p.Chain, p.CompanyAddress),
		fmt.Sprintf("company address is not a valid %s address", p.Chain)))

	checks = append(checks, check(CheckAmountRange,
		p.AmountUSD >= MinDepositUSD && p.AmountUSD <= MaxDepositUSD,
		fmt.Sprintf("amount $%.2f is outside the allowed range of $%.0f to $%.0f", p.AmountUSD, MinDepositUSD, MaxDepositUSD)))

	checks = append(checks, check(CheckTxRefFormat,
		p.TxRef != nil && ValidTxRefFormat(p.Chain, *p.TxRef),
		fmt.Sprintf("transaction reference is not a valid %s hash", p.Chain)))

	checks = append(checks, check(CheckSenderAddressFormat,
		p.SenderAddress != nil && ValidAddressFormat(p.Chain, *p.SenderAddress),
		fmt.Sprintf("sender address is missing or not a valid %s address", p.Chain)))

	checks = append(checks, check(CheckSubmissionRecency,
		now.Before(p.ExpiresAt),
		"submission is past its review window"))

	for _, c := range checks {
		if c.Passed {
			score += BasicCheckWeight
		}
	}
	return score, checks
}

// ChainEvidence carries everything the blockchain gate needs, gathered
// before the gate runs so the evaluation itself is pure.
type ChainEvidence struct {
	Lookup       explorer.Result
	DuplicateRef bool
	Now          time.Time
}

// RunChainVerification evaluates the all-or-nothing blockchain gate.
// Checks run in a fixed order; the first failure stops the chain, but
// every check that already passed stays in the returned slice. A fully
// passed gate returns reason == "".
func RunChainVerification(p *models.PaymentRequest, ev ChainEvidence) (checks []CheckResult, reason string) {
	c := check(CheckDuplicateHash, !ev.DuplicateRef,
		"transaction reference is already claimed by another live payment")
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	switch ev.Lookup.Outcome {
	case explorer.OutcomeFound:
		if ev.Lookup.Tx.Pending {
			c = check(CheckTxExists, false,
				"transaction has not been mined yet (0 confirmations)")
		} else {
			c = check(CheckTxExists, ev.Lookup.Tx.Success,
				"transaction found on chain but did not execute successfully")
		}
	case explorer.OutcomeNotFound:
		c = check(CheckTxExists, false, "transaction not found on chain")
	default:
		c = check(CheckTxExists, false, "verification inconclusive: "+ev.Lookup.Detail)
	}
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}
	tx := ev.Lookup.Tx

	sender := ""
	if p.SenderAddress != nil {
		sender = *p.SenderAddress
	}
	c = check(CheckSenderMatch, addressesEqual(p.Chain, tx.From, sender),
		"on-chain sender does not match the claimed sender address")
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	c = check(CheckRecipientMatch, addressesEqual(p.Chain, tx.To, p.CompanyAddress),
		"on-chain recipient does not match the company deposit address")
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	price, priced := ChainPriceUSD(p.Chain)
	txUSD := tx.Value * price
	c = check(CheckAmountTolerance, priced && amountWithinTolerance(p.AmountUSD, txUSD),
		fmt.Sprintf("on-chain value $%.2f is outside ±%d%% of the declared $%.2f", txUSD, amountTolerancePct, p.AmountUSD))
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	c = check(CheckConfirmations, tx.Confirmations >= MinConfirmations,
		fmt.Sprintf("only %d of %d required confirmations", tx.Confirmations, MinConfirmations))
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	c = check(CheckTxAge, !tx.Timestamp.IsZero() && ev.Now.Sub(tx.Timestamp) <= MaxTxAge,
		"transaction is older than 7 days")
	checks = append(checks, c)
	if !c.Passed {
		return checks, c.Message
	}

	return checks, ""
}

// amountWithinTolerance compares on decimal values so the 95% and 105%
// boundaries pass exactly.
func amountWithinTolerance(claimedUSD, onChainUSD float64) bool {
	claimed := decimal.NewFromFloat(claimedUSD)
	onChain := decimal.NewFromFloat(onChainUSD)
	if claimed.IsZero() {
		return false
	}

	tolerance := claimed.Mul(decimal.New(amountTolerancePct, -2))
	lower := claimed.Sub(tolerance)
	upper := claimed.Add(tolerance)
	return onChain.GreaterThanOrEqual(lower) && onChain.LessThanOrEqual(upper)
}

// FailedCheckReasons joins the messages of failed checks, first failure
// first, for surfacing in the manual-review queue.
func FailedCheckReasons(checks []CheckResult) string {
	var msgs []string
	for _, c := range checks {
		if !c.Passed {
			msgs = append(msgs, c.Message)
		}
	}
	return strings.Join(msgs, "; ")
}
