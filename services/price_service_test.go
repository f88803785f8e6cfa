package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChainPriceUSD(t *testing.T) {
	for _, chain := range []string{"eth", "bsc", "polygon", "tron"} {
		price, ok := ChainPriceUSD(chain)
		assert.True(t, ok, chain)
		assert.Positive(t, price, chain)
	}

	price, ok := ChainPriceUSD("sol")
	assert.False(t, ok)
	assert.Zero(t, price)
}
