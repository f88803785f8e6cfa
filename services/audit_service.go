package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/kelvinjuma/invest_portal/models"
	"gorm.io/gorm"
)

// Audit actions recorded against payments.
const (
	AuditPaymentSubmitted    = "payment_submitted"
	AuditAutoApproved        = "auto_approved"
	AuditQueuedManualReview  = "queued_manual_review"
	AuditPaymentApproved     = "payment_approved"
	AuditPaymentRejected     = "payment_rejected"
	AuditPaymentExpired      = "payment_expired"
	AuditCommissionsCreated  = "commissions_created"
	AuditVerificationAttempt = "verification_attempt"
)

// RecordAudit appends an audit row inside the caller's transaction so
// the trail commits or rolls back with the action it describes.
func RecordAudit(tx *gorm.DB, actorID, paymentID *uuid.UUID, action, details string) error {
	entry := models.AuditLog{
		ActorID:   actorID,
		PaymentID: paymentID,
		Action:    action,
		Details:   details,
	}
	return tx.Create(&entry).Error
}

// RecordAuditBestEffort is for paths where an audit failure must not
// fail the request, such as lazy expiry on read.
func RecordAuditBestEffort(tx *gorm.DB, actorID, paymentID *uuid.UUID, action, details string) {
	if err := RecordAudit(tx, actorID, paymentID, action, details); err != nil {
		log.Printf("🔥 Failed to write audit entry %s: %v", action, err)
	}
}
