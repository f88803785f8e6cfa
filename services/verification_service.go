package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/explorer"
	"github.com/kelvinjuma/invest_portal/models"
	"github.com/kelvinjuma/invest_portal/notifications"
	"github.com/kelvinjuma/invest_portal/websocket"
	"gorm.io/gorm"
)

// applyTransition is the compare-and-set core: the update func reports
// how many rows still held the expected prior state. Losing the race,
// or asking for an illegal transition, is ErrStateConflict and leaves
// the payment untouched.
func applyTransition(p *models.PaymentRequest, from, to string, extra map[string]interface{}, update func(map[string]interface{}) (int64, error)) error {
	if !models.CanTransitionPayment(from, to) {
		return ErrStateConflict
	}

	updates := map[string]interface{}{"state": to}
	for k, v := range extra {
		updates[k] = v
	}

	affected, err := update(updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStateConflict
	}

	p.State = to
	if v, ok := updates["confidence"]; ok {
		p.Confidence = v.(int)
	}
	if v, ok := updates["verify_reason"]; ok {
		p.VerifyReason = v.(string)
	}
	return nil
}

// casTransition moves a payment to a new state only while it still
// holds the expected prior state in the database.
func casTransition(db *gorm.DB, p *models.PaymentRequest, from, to string, extra map[string]interface{}) error {
	return applyTransition(p, from, to, extra, func(updates map[string]interface{}) (int64, error) {
		res := db.Model(&models.PaymentRequest{}).
			Where("id = ? AND state = ?", p.ID, from).
			Updates(updates)
		return res.RowsAffected, res.Error
	})
}

// ExpireIfOverdue lazily flips a payment past its review window to
// expired. Returns true when the payment is now expired.
func ExpireIfOverdue(db *gorm.DB, p *models.PaymentRequest) bool {
	if p.State == models.PaymentStateExpired {
		return true
	}
	if !p.IsExpired(time.Now()) {
		return false
	}

	if err := casTransition(db, p, p.State, models.PaymentStateExpired, map[string]interface{}{
		"verify_reason": "payment expired before verification completed",
	}); err != nil {
		// Someone else already moved it; reload to report the truth.
		db.First(p, "id = ?", p.ID)
		return p.State == models.PaymentStateExpired
	}

	RecordAuditBestEffort(db, nil, &p.ID, AuditPaymentExpired, "review window elapsed")
	websocket.PushPaymentStatus(p.UserID, p.ID, p.State, p.Confidence)
	return true
}

func recordSnapshot(db *gorm.DB, paymentID uuid.UUID, checks []CheckResult, confidence int, verdict, reason, source string) error {
	raw, err := json.Marshal(checks)
	if err != nil {
		return fmt.Errorf("failed to serialize check results: %w", err)
	}

	snapshot := models.VerificationResult{
		PaymentID:  paymentID,
		Checks:     raw,
		Confidence: confidence,
		Verdict:    verdict,
		Reason:     reason,
		Source:     source,
	}
	return db.Create(&snapshot).Error
}

func hasDuplicateTxRef(db *gorm.DB, p *models.PaymentRequest) (bool, error) {
	if p.TxRef == nil {
		return false, nil
	}
	var count int64
	err := db.Model(&models.PaymentRequest{}).
		Where("tx_ref = ? AND id <> ? AND state NOT IN ?", *p.TxRef, p.ID,
			[]string{models.PaymentStateRejected, models.PaymentStateExpired}).
		Count(&count).Error
	return count > 0, err
}

// submissionOutcome is the combined verdict of both verification gates.
type submissionOutcome struct {
	Checks     []CheckResult
	Confidence int
	Approved   bool
	Reason     string
}

// evaluateSubmission runs the two gates, gathering chain evidence only
// once the basic gate has passed. A fully passed run always carries
// FullPassConfidence, even when the basic gate cleared its threshold
// below a perfect score; a basic-gate failure keeps its score as the
// confidence, a chain-gate failure records zero.
func evaluateSubmission(p *models.PaymentRequest, now time.Time, gather func() (ChainEvidence, error)) (submissionOutcome, error) {
	score, basicChecks := RunBasicValidation(p, now)
	if score < BasicPassScore {
		// Gate 1 failed; gate 2 never runs, so its reasons can never
		// mask the basic-validation shortfall.
		return submissionOutcome{
			Checks:     basicChecks,
			Confidence: score,
			Reason:     FailedCheckReasons(basicChecks),
		}, nil
	}

	ev, err := gather()
	if err != nil {
		return submissionOutcome{}, err
	}

	chainChecks, reason := RunChainVerification(p, ev)
	allChecks := append(basicChecks, chainChecks...)
	if reason != "" {
		return submissionOutcome{Checks: allChecks, Reason: reason}, nil
	}
	return submissionOutcome{
		Checks:     allChecks,
		Confidence: FullPassConfidence,
		Approved:   true,
	}, nil
}

// RunAutoVerification drives a freshly submitted payment through both
// verification gates and either approves it or queues it for manual
// review. The explorer lookup completes before any database
// transaction opens.
func RunAutoVerification(paymentID uuid.UUID) (*models.PaymentRequest, error) {
	var payment models.PaymentRequest
	if err := database.DB.First(&payment, "id = ?", paymentID).Error; err != nil {
		return nil, ErrPaymentNotFound
	}

	if ExpireIfOverdue(database.DB, &payment) {
		return &payment, nil
	}

	if payment.State == models.PaymentStatePending {
		if err := casTransition(database.DB, &payment, models.PaymentStatePending, models.PaymentStateSubmitted, nil); err != nil {
			return nil, err
		}
	}
	if payment.State != models.PaymentStateSubmitted {
		return nil, ErrStateConflict
	}

	now := time.Now()
	outcome, err := evaluateSubmission(&payment, now, func() (ChainEvidence, error) {
		lookup := explorer.Result{Outcome: explorer.OutcomeNotFound, Detail: "no transaction reference provided"}
		if payment.TxRef != nil {
			lookup = explorer.LookupTransaction(payment.Chain, *payment.TxRef)
		}
		duplicate, err := hasDuplicateTxRef(database.DB, &payment)
		if err != nil {
			return ChainEvidence{}, err
		}
		return ChainEvidence{Lookup: lookup, DuplicateRef: duplicate, Now: now}, nil
	})
	if err != nil {
		return nil, err
	}

	if !outcome.Approved {
		return &payment, queueManualReview(&payment, outcome.Checks, outcome.Confidence, outcome.Reason)
	}

	// CAS and snapshot commit together; a lost race rolls the snapshot
	// back with it.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := casTransition(tx, &payment, models.PaymentStateSubmitted, models.PaymentStateAutoApproved, map[string]interface{}{
			"confidence":    outcome.Confidence,
			"verify_reason": "all verification checks passed",
		}); err != nil {
			return err
		}
		return recordSnapshot(tx, payment.ID, outcome.Checks, outcome.Confidence, models.VerdictAutoApproved, "", models.VerificationSourceAuto)
	})
	if err != nil {
		return nil, err
	}

	if err := finalizeApproval(&payment, nil, models.VerificationSourceAuto, ""); err != nil {
		return nil, err
	}
	return &payment, nil
}

func queueManualReview(p *models.PaymentRequest, checks []CheckResult, confidence int, reason string) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := casTransition(tx, p, models.PaymentStateSubmitted, models.PaymentStateManualReview, map[string]interface{}{
			"confidence":    confidence,
			"verify_reason": reason,
		}); err != nil {
			return err
		}
		return recordSnapshot(tx, p.ID, checks, confidence, models.VerdictManualReview, reason, models.VerificationSourceAuto)
	})
	if err != nil {
		return err
	}

	RecordAuditBestEffort(database.DB, nil, &p.ID, AuditQueuedManualReview, reason)
	websocket.PushPaymentStatus(p.UserID, p.ID, p.State, p.Confidence)

	go notifyPaymentOwner(p,
		"Your Payment is Being Reviewed",
		"<h1>Payment Under Review</h1><p>We could not verify your payment automatically, so our team is reviewing it. You will be notified once a decision is made.</p>")

	log.Printf("Payment %s queued for manual review: %s", p.ID, reason)
	return nil
}

func notifyPaymentOwner(p *models.PaymentRequest, subject, body string) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", p.UserID).Error; err != nil {
		log.Printf("🔥 Failed to load user %s for payment notification: %v", p.UserID, err)
		return
	}
	notifications.SendEmail(user.FullName, user.Email, subject, body)
}
