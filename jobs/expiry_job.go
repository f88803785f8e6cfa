package jobs

import (
	"log"
	"time"

	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/services"
)

// ExpireOverduePayments sweeps non-terminal payments past their review
// window. Expiry is also applied lazily on every read, so this job only
// keeps listings and the review queue tidy between reads.
func ExpireOverduePayments() {
	log.Println("Running job: ExpireOverduePayments...")

	var overdue []models.PaymentRequest
	err := database.DB.
		Where("state IN ? AND expires_at < ?",
			[]string{
				models.PaymentStatePending,
				models.PaymentStateSubmitted,
				models.PaymentStateAutoApproved,
				models.PaymentStateManualReview,
			},
			time.Now()).
		Find(&overdue).Error
	if err != nil {
		log.Printf("Error loading overdue payments: %v", err)
		return
	}

	expired := 0
	for i := range overdue {
		if services.ExpireIfOverdue(database.DB, &overdue[i]) {
			expired++
		}
	}
	if expired > 0 {
		log.Printf("Expired %d overdue payment(s)", expired)
	}
}
