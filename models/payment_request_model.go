package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment lifecycle states.
//
//	pending -> submitted -> {auto_approved | manual_review} -> {approved | rejected}
//
// expired is reachable from any non-terminal state once ExpiresAt has
// passed. approved, rejected and expired are terminal.
const (
	PaymentStatePending      = "pending"
	PaymentStateSubmitted    = "submitted"
	PaymentStateAutoApproved = "auto_approved"
	PaymentStateManualReview = "manual_review"
	PaymentStateApproved     = "approved"
	PaymentStateRejected     = "rejected"
	PaymentStateExpired      = "expired"
)

// PaymentRequestTTL is how long a submitted payment stays reviewable.
const PaymentRequestTTL = 7 * 24 * time.Hour

var paymentTransitions = map[string][]string{
	PaymentStatePending:      {PaymentStateSubmitted, PaymentStateExpired},
	PaymentStateSubmitted:    {PaymentStateAutoApproved, PaymentStateManualReview, PaymentStateApproved, PaymentStateRejected, PaymentStateExpired},
	PaymentStateAutoApproved: {PaymentStateApproved, PaymentStateExpired},
	PaymentStateManualReview: {PaymentStateApproved, PaymentStateRejected, PaymentStateExpired},
}

// CanTransitionPayment reports whether from -> to is a legal lifecycle
// transition. Terminal states have no outgoing transitions.
func CanTransitionPayment(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalPaymentState reports whether a payment in this state can
// never change again.
func IsTerminalPaymentState(state string) bool {
	return state == PaymentStateApproved || state == PaymentStateRejected || state == PaymentStateExpired
}

type PaymentRequest struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID     uuid.UUID  `gorm:"not null;index" json:"user_id"`
	PositionID *uuid.UUID `gorm:"unique" json:"position_id"`

	AmountUSD      float64 `gorm:"type:numeric(12,2);not null" json:"amount_usd"`
	Method         string  `gorm:"size:20;not null;default:'crypto'" json:"method"`
	Chain          string  `gorm:"size:20" json:"chain"`
	SenderName     string  `gorm:"size:255" json:"sender_name"`
	SenderAddress  *string `gorm:"size:128" json:"sender_address"`
	CompanyAddress string  `gorm:"size:128" json:"company_address"`

	// TxRef is unique across all payments that are still live; a
	// rejected or expired payment releases its hash for resubmission.
	TxRef    *string `gorm:"size:128;index:uniq_payment_requests_tx_ref,unique,where:tx_ref IS NOT NULL AND state <> 'rejected' AND state <> 'expired'" json:"tx_ref"`
	ProofURL *string `gorm:"size:512" json:"proof_url"`

	State        string  `gorm:"size:20;not null;default:'pending';index" json:"state"`
	Confidence   int     `gorm:"not null;default:0" json:"confidence"`
	VerifyReason string  `gorm:"type:text" json:"verify_reason"`
	ReceiptURL   *string `gorm:"size:512" json:"receipt_url"`

	User     User                `gorm:"foreignkey:UserID" json:"-"`
	Position *InvestmentPosition `gorm:"foreignkey:PositionID" json:"position,omitempty"`

	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final state.
func (p *PaymentRequest) IsTerminal() bool {
	return IsTerminalPaymentState(p.State)
}

// IsExpired reports whether the payment is past its review window and
// not already terminal. Callers flip expired payments lazily on read.
func (p *PaymentRequest) IsExpired(now time.Time) bool {
	return !p.IsTerminal() && now.After(p.ExpiresAt)
}
