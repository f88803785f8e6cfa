package services

import (
	"errors"
	"testing"

	"github.com/kelvinjuma/invest_portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowUpdater simulates the guarded row update: it only matches while
// the row still holds the expected prior state.
func rowUpdater(rowState *string, from string) func(map[string]interface{}) (int64, error) {
	return func(updates map[string]interface{}) (int64, error) {
		if *rowState != from {
			return 0, nil
		}
		*rowState = updates["state"].(string)
		return 1, nil
	}
}

func TestApplyTransition_MovesPaymentAndRow(t *testing.T) {
	rowState := models.PaymentStateManualReview
	p := &models.PaymentRequest{State: rowState}

	err := applyTransition(p, models.PaymentStateManualReview, models.PaymentStateApproved,
		map[string]interface{}{"confidence": 90, "verify_reason": "looks good"},
		rowUpdater(&rowState, models.PaymentStateManualReview))

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStateApproved, p.State)
	assert.Equal(t, models.PaymentStateApproved, rowState)
	assert.Equal(t, 90, p.Confidence)
	assert.Equal(t, "looks good", p.VerifyReason)
}

func TestApplyTransition_LostRace(t *testing.T) {
	// The row already moved on; the update matches nothing.
	rowState := models.PaymentStateApproved
	p := &models.PaymentRequest{State: models.PaymentStateManualReview}

	err := applyTransition(p, models.PaymentStateManualReview, models.PaymentStateApproved, nil,
		rowUpdater(&rowState, models.PaymentStateManualReview))

	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Equal(t, models.PaymentStateManualReview, p.State, "a lost race leaves the payment untouched")
}

func TestApplyTransition_IllegalTransition(t *testing.T) {
	p := &models.PaymentRequest{State: models.PaymentStateApproved}

	called := false
	err := applyTransition(p, models.PaymentStateApproved, models.PaymentStateApproved, nil,
		func(map[string]interface{}) (int64, error) {
			called = true
			return 1, nil
		})

	assert.ErrorIs(t, err, ErrStateConflict)
	assert.False(t, called, "terminal states never reach the row update")
}

func TestApplyApproval_SecondApprovalCreatesNothing(t *testing.T) {
	rowState := models.PaymentStateManualReview
	var commissionInserts, positionUpdates, auditInserts int

	// Two operators load the same payment before either decides.
	approve := func(p *models.PaymentRequest) ([]models.CommissionRecord, error) {
		prior := p.State
		return applyApproval(approvalEffects{
			transition: func() error {
				return applyTransition(p, prior, models.PaymentStateApproved, nil,
					rowUpdater(&rowState, prior))
			},
			commissions: func() ([]models.CommissionRecord, error) {
				commissionInserts += 3
				return make([]models.CommissionRecord, 3), nil
			},
			activate: func() error {
				positionUpdates++
				return nil
			},
			audit: func([]models.CommissionRecord) error {
				auditInserts++
				return nil
			},
		})
	}

	first := &models.PaymentRequest{State: rowState}
	second := &models.PaymentRequest{State: rowState}

	created, err := approve(first)
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Equal(t, models.PaymentStateApproved, first.State)

	_, err = approve(second)
	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Equal(t, 3, commissionInserts, "the losing approval inserts no commission rows")
	assert.Equal(t, 1, positionUpdates)
	assert.Equal(t, 1, auditInserts)
}

func TestApplyApproval_CommissionFailureStopsLaterSteps(t *testing.T) {
	boom := errors.New("duplicate key value violates unique constraint")
	var activated, audited bool

	_, err := applyApproval(approvalEffects{
		transition: func() error { return nil },
		commissions: func() ([]models.CommissionRecord, error) {
			return nil, boom
		},
		activate: func() error {
			activated = true
			return nil
		},
		audit: func([]models.CommissionRecord) error {
			audited = true
			return nil
		},
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, activated)
	assert.False(t, audited)
}
