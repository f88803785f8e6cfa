package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxReferralDepth bounds the upward walk through the referral graph.
// It is also the only safeguard against a malformed cyclic graph: the
// walk does no cycle detection, so the depth cap must stay in place.
const MaxReferralDepth = 3

// commissionRates is the authoritative per-level rate table: 12% to the
// direct referrer, 5% and 3% to the two levels above.
var commissionRates = [MaxReferralDepth]float64{0.12, 0.05, 0.03}

// CommissionRate returns the payout rate for a referral level (1-3).
func CommissionRate(level int) float64 {
	if level < 1 || level > MaxReferralDepth {
		return 0
	}
	return commissionRates[level-1]
}

// ReferralLevel is one entry of a resolved referral chain.
type ReferralLevel struct {
	Level      int
	ReferrerID uuid.UUID
}

// resolveChain walks referred -> referrer one hop at a time, stopping
// at MaxReferralDepth or at the first user without a referrer.
func resolveChain(start uuid.UUID, referrerOf func(uuid.UUID) (uuid.UUID, bool, error)) ([]ReferralLevel, error) {
	chain := make([]ReferralLevel, 0, MaxReferralDepth)
	current := start
	for level := 1; level <= MaxReferralDepth; level++ {
		referrer, ok, err := referrerOf(current)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		chain = append(chain, ReferralLevel{Level: level, ReferrerID: referrer})
		current = referrer
	}
	return chain, nil
}

// ResolveReferralChain returns the up-to-three referrers above a user,
// nearest first.
func ResolveReferralChain(db *gorm.DB, userID uuid.UUID) ([]ReferralLevel, error) {
	return resolveChain(userID, func(id uuid.UUID) (uuid.UUID, bool, error) {
		var edge models.Referral
		err := db.Where("referred_user_id = ?", id).First(&edge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, false, nil
		}
		if err != nil {
			return uuid.Nil, false, err
		}
		return edge.ReferrerID, true, nil
	})
}

// CommissionAmount computes base × rate rounded to cents, on decimals
// so a $1,000.00 payment yields exactly $120.00 / $50.00 / $30.00.
func CommissionAmount(baseUSD, rate float64) float64 {
	amount := decimal.NewFromFloat(baseUSD).
		Mul(decimal.NewFromFloat(rate)).
		Round(2)
	out, _ := amount.Float64()
	return out
}

// DistributeCommissions creates one calculated CommissionRecord per
// resolved referral level for an approved payment. It must run inside
// the same transaction as the payment's transition to approved; the
// (payment_id, level) unique index rejects a second distribution.
func DistributeCommissions(tx *gorm.DB, payment *models.PaymentRequest) ([]models.CommissionRecord, error) {
	chain, err := ResolveReferralChain(tx, payment.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve referral chain: %w", err)
	}

	records := make([]models.CommissionRecord, 0, len(chain))
	for _, entry := range chain {
		rate := CommissionRate(entry.Level)
		record := models.CommissionRecord{
			PaymentID:        payment.ID,
			BeneficiaryID:    entry.ReferrerID,
			Level:            entry.Level,
			Rate:             rate,
			BaseAmount:       payment.AmountUSD,
			CommissionAmount: CommissionAmount(payment.AmountUSD, rate),
			Status:           models.CommissionStatusCalculated,
		}
		if err := tx.Create(&record).Error; err != nil {
			return nil, fmt.Errorf("failed to create level %d commission: %w", entry.Level, err)
		}
		records = append(records, record)
	}
	return records, nil
}
