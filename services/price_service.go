package services

// Static per-chain USD prices used by the amount-tolerance check.
// These stand in for a live price feed; the ±5% tolerance absorbs
// normal drift. TODO: replace with a price oracle client.
var chainPricesUSD = map[string]float64{
	"eth":     3400.00,
	"bsc":     600.00,
	"polygon": 0.55,
	"tron":    0.12,
}

// ChainPriceUSD returns the USD price of one native unit of the chain's
// currency, and whether the chain is priced at all.
func ChainPriceUSD(chain string) (float64, bool) {
	price, ok := chainPricesUSD[chain]
	return price, ok
}
