package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapReferrers builds a referrerOf lookup from an in-memory edge map.
func mapReferrers(edges map[uuid.UUID]uuid.UUID) func(uuid.UUID) (uuid.UUID, bool, error) {
	return func(id uuid.UUID) (uuid.UUID, bool, error) {
		referrer, ok := edges[id]
		return referrer, ok, nil
	}
}

func TestResolveChain_LinearAncestry(t *testing.T) {
	// u0 referred by u1, u1 by u2, ... five ancestors deep.
	users := make([]uuid.UUID, 6)
	for i := range users {
		users[i] = uuid.New()
	}
	edges := map[uuid.UUID]uuid.UUID{}
	for i := 0; i < 5; i++ {
		edges[users[i]] = users[i+1]
	}

	chain, err := resolveChain(users[0], mapReferrers(edges))

	require.NoError(t, err)
	require.Len(t, chain, MaxReferralDepth, "walk stops at the depth cap")
	assert.Equal(t, ReferralLevel{Level: 1, ReferrerID: users[1]}, chain[0])
	assert.Equal(t, ReferralLevel{Level: 2, ReferrerID: users[2]}, chain[1])
	assert.Equal(t, ReferralLevel{Level: 3, ReferrerID: users[3]}, chain[2])
}

func TestResolveChain_ShortAncestry(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	chain, err := resolveChain(a, mapReferrers(map[uuid.UUID]uuid.UUID{a: b}))

	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, b, chain[0].ReferrerID)
}

func TestResolveChain_NoReferrer(t *testing.T) {
	chain, err := resolveChain(uuid.New(), mapReferrers(nil))

	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestResolveChain_CycleTerminatesAtDepthCap(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	// a -> b -> a: a malformed graph must still terminate.
	chain, err := resolveChain(a, mapReferrers(map[uuid.UUID]uuid.UUID{a: b, b: a}))

	require.NoError(t, err)
	require.Len(t, chain, MaxReferralDepth)
	assert.Equal(t, b, chain[0].ReferrerID)
	assert.Equal(t, a, chain[1].ReferrerID)
	assert.Equal(t, b, chain[2].ReferrerID)
}

func TestResolveChain_LookupError(t *testing.T) {
	boom := errors.New("connection reset")
	chain, err := resolveChain(uuid.New(), func(uuid.UUID) (uuid.UUID, bool, error) {
		return uuid.Nil, false, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, chain)
}

func TestCommissionRate(t *testing.T) {
	assert.Equal(t, 0.12, CommissionRate(1))
	assert.Equal(t, 0.05, CommissionRate(2))
	assert.Equal(t, 0.03, CommissionRate(3))
	assert.Zero(t, CommissionRate(0))
	assert.Zero(t, CommissionRate(4))
}

func TestCommissionAmount(t *testing.T) {
	tests := []struct {
		name string
		base float64
		rate float64
		want float64
	}{
		{"level 1 on a thousand", 1000, 0.12, 120},
		{"level 2 on a thousand", 1000, 0.05, 50},
		{"level 3 on a thousand", 1000, 0.03, 30},
		{"rounds to cents", 99.99, 0.12, 12.00},
		{"rounds half up", 50.125, 0.12, 6.02},
		{"zero base", 0, 0.12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CommissionAmount(tt.base, tt.rate), 1e-9)
		})
	}
}
