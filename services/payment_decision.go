package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/notifications"
	"github.com/kelvinjuma/invest_portal/websocket"
	"gorm.io/gorm"
)

func loadPaymentForDecision(paymentID uuid.UUID) (*models.PaymentRequest, error) {
	var payment models.PaymentRequest
	if err := database.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, ErrPaymentNotFound
	}
	if ExpireIfOverdue(database.DB, &payment) {
		return &payment, ErrStateConflict
	}
	return &payment, nil
}

// ApprovePayment is the manual-review approval path. It requires the
// payment to be awaiting a decision and produces exactly the same
// downstream effects as automatic approval.
func ApprovePayment(paymentID uuid.UUID, operatorID uuid.UUID, notes string) (*models.PaymentRequest, error) {
	payment, err := loadPaymentForDecision(paymentID)
	if err != nil {
		return payment, err
	}
	if payment.State != models.PaymentStateSubmitted && payment.State != models.PaymentStateManualReview {
		return payment, ErrStateConflict
	}

	if err := finalizeApproval(payment, &operatorID, models.VerificationSourceManual, notes); err != nil {
		return payment, err
	}
	return payment, nil
}

// RejectPayment is the manual-review rejection path.
func RejectPayment(paymentID uuid.UUID, operatorID uuid.UUID, notes string) (*models.PaymentRequest, error) {
	payment, err := loadPaymentForDecision(paymentID)
	if err != nil {
		return payment, err
	}
	if payment.State != models.PaymentStateSubmitted && payment.State != models.PaymentStateManualReview {
		return payment, ErrStateConflict
	}

	prior := payment.State
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := casTransition(tx, payment, prior, models.PaymentStateRejected, map[string]interface{}{
			"verify_reason": notes,
		}); err != nil {
			return err
		}
		if err := recordSnapshot(tx, payment.ID, nil, payment.Confidence, models.VerdictRejected, notes, models.VerificationSourceManual); err != nil {
			return err
		}
		return RecordAudit(tx, &operatorID, &payment.ID, AuditPaymentRejected, notes)
	})
	if err != nil {
		return payment, err
	}

	websocket.PushPaymentStatus(payment.UserID, payment.ID, payment.State, payment.Confidence)
	go notifyPaymentOwner(payment,
		"Update on Your Payment",
		"<h1>Payment Rejected</h1><p>We were unable to verify your payment and it has been rejected. If you believe this is a mistake, please contact support with your proof of payment.</p>")

	return payment, nil
}

// approvalEffects groups the writes that must land atomically with the
// transition to approved. snapshot is nil on the auto path, which has
// already recorded its own.
type approvalEffects struct {
	transition  func() error
	snapshot    func() error
	commissions func() ([]models.CommissionRecord, error)
	activate    func() error
	audit       func(commissions []models.CommissionRecord) error
}

// applyApproval runs the approval unit in order. The transition goes
// first, so a payment that already left its prior state produces no
// commission or position writes at all.
func applyApproval(e approvalEffects) ([]models.CommissionRecord, error) {
	if err := e.transition(); err != nil {
		return nil, err
	}
	if e.snapshot != nil {
		if err := e.snapshot(); err != nil {
			return nil, err
		}
	}
	commissions, err := e.commissions()
	if err != nil {
		return nil, err
	}
	if err := e.activate(); err != nil {
		return nil, err
	}
	if err := e.audit(commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

// finalizeApproval moves a payment into approved and applies every
// financial side effect in one transaction: the CAS state update, the
// commission fan-out, position activation and the audit trail. Any
// failure rolls the whole unit back and the payment keeps its prior
// state.
func finalizeApproval(payment *models.PaymentRequest, actorID *uuid.UUID, source, notes string) error {
	prior := payment.State

	var commissions []models.CommissionRecord
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		effects := approvalEffects{
			transition: func() error {
				return casTransition(tx, payment, prior, models.PaymentStateApproved, map[string]interface{}{
					"verify_reason": approvalReason(source, notes),
				})
			},
			commissions: func() ([]models.CommissionRecord, error) {
				return DistributeCommissions(tx, payment)
			},
			activate: func() error {
				if payment.PositionID == nil {
					return nil
				}
				return tx.Model(&models.InvestmentPosition{}).
					Where("id = ? AND status = ?", *payment.PositionID, models.PositionStatusPending).
					Updates(map[string]interface{}{
						"status":       models.PositionStatusActive,
						"activated_at": time.Now(),
					}).Error
			},
			audit: func(created []models.CommissionRecord) error {
				if err := RecordAudit(tx, actorID, &payment.ID, AuditPaymentApproved,
					fmt.Sprintf("approved via %s path", source)); err != nil {
					return err
				}
				if len(created) == 0 {
					return nil
				}
				return RecordAudit(tx, actorID, &payment.ID, AuditCommissionsCreated,
					fmt.Sprintf("%d commission record(s) for $%.2f base", len(created), payment.AmountUSD))
			},
		}
		if source == models.VerificationSourceManual {
			effects.snapshot = func() error {
				return recordSnapshot(tx, payment.ID, nil, payment.Confidence, models.VerdictApproved, notes, source)
			}
		}

		var err error
		commissions, err = applyApproval(effects)
		return err
	})
	if err != nil {
		// The transaction rolled back; report the prior state.
		payment.State = prior
		return err
	}

	websocket.PushPaymentStatus(payment.UserID, payment.ID, payment.State, payment.Confidence)
	go notifyPaymentOwner(payment,
		"Your Payment Has Been Approved!",
		"<h1>Payment Approved</h1><p>Your payment was verified and your investment position is now active.</p>")
	go notifyCommissionBeneficiaries(commissions)
	go GeneratePaymentReceipt(payment.ID)

	log.Printf("✅ Payment %s approved (%s), %d commission(s) created", payment.ID, source, len(commissions))
	return nil
}

func approvalReason(source, notes string) string {
	if source == models.VerificationSourceManual {
		if notes == "" {
			return "approved by operator"
		}
		return notes
	}
	return "all verification checks passed"
}

func notifyCommissionBeneficiaries(commissions []models.CommissionRecord) {
	for _, c := range commissions {
		var user models.User
		if err := database.DB.First(&user, "id = ?", c.BeneficiaryID).Error; err != nil {
			log.Printf("🔥 Failed to load commission beneficiary %s: %v", c.BeneficiaryID, err)
			continue
		}
		notifyBody := fmt.Sprintf(
			"<h1>Congratulations!</h1><p>A level %d referral commission of $%.2f has been credited to your account.</p>",
			c.Level, c.CommissionAmount)
		notifications.SendEmail(user.FullName, user.Email, "You've Earned a Referral Commission!", notifyBody)
	}
}
