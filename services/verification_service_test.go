package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSubmission_FullPass(t *testing.T) {
	now := time.Now()
	p := validEVMPayment(now)

	out, err := evaluateSubmission(p, now, func() (ChainEvidence, error) {
		return passingEvidence(p, now), nil
	})

	require.NoError(t, err)
	assert.True(t, out.Approved)
	assert.Equal(t, FullPassConfidence, out.Confidence)
	assert.Empty(t, out.Reason)
	assert.Len(t, out.Checks, 12)
}

func TestEvaluateSubmission_FullChainPassOverridesBasicScore(t *testing.T) {
	// A claim above the deposit cap fails only amount_range: the basic
	// gate still clears its threshold at 80, and the on-chain value
	// tracks the claim, so every blockchain check passes. The stored
	// confidence must be the full-pass value, not the gate-1 score.
	now := time.Now()
	p := validEVMPayment(now)
	p.AmountUSD = 2_000_000

	score, _ := RunBasicValidation(p, now)
	require.Equal(t, 80, score)

	out, err := evaluateSubmission(p, now, func() (ChainEvidence, error) {
		return passingEvidence(p, now), nil
	})

	require.NoError(t, err)
	assert.True(t, out.Approved)
	assert.Equal(t, FullPassConfidence, out.Confidence)
}

func TestEvaluateSubmission_BasicGateFailureSkipsChainGate(t *testing.T) {
	now := time.Now()
	p := validEVMPayment(now)
	p.SenderAddress = nil
	p.TxRef = nil
	p.AmountUSD = 10

	gathered := false
	out, err := evaluateSubmission(p, now, func() (ChainEvidence, error) {
		gathered = true
		return ChainEvidence{}, nil
	})

	require.NoError(t, err)
	assert.False(t, gathered, "chain evidence is never fetched when the basic gate fails")
	assert.False(t, out.Approved)
	assert.Equal(t, 40, out.Confidence, "a basic-gate failure keeps its score as the confidence")
	assert.Len(t, out.Checks, 5)
	assert.NotEmpty(t, out.Reason)
}

func TestEvaluateSubmission_ChainGateFailure(t *testing.T) {
	now := time.Now()
	p := validEVMPayment(now)
	ev := passingEvidence(p, now)
	ev.Lookup.Tx.Confirmations = 1

	out, err := evaluateSubmission(p, now, func() (ChainEvidence, error) {
		return ev, nil
	})

	require.NoError(t, err)
	assert.False(t, out.Approved)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, "only 1 of 3 required confirmations", out.Reason)
}

func TestEvaluateSubmission_GatherError(t *testing.T) {
	now := time.Now()
	p := validEVMPayment(now)
	boom := errors.New("connection reset")

	_, err := evaluateSubmission(p, now, func() (ChainEvidence, error) {
		return ChainEvidence{}, boom
	})

	assert.ErrorIs(t, err, boom)
}
