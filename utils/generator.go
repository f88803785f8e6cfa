package utils

import (
	"errors"
	"math/rand"

	"github.com/kelvinjuma/invest_portal/models"
	"gorm.io/gorm"
)

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts      = 25
)

// GenerateUniqueReferralCode returns a referral code no existing user
// holds, checked against the caller's transaction.
func GenerateUniqueReferralCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		b := make([]byte, referralCodeLength)
		for i := range b {
			b[i] = referralCodeAlphabet[rand.Intn(len(referralCodeAlphabet))]
		}
		code := string(b)

		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique referral code")
}
