package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CommissionStatusCalculated = "calculated"
	CommissionStatusPaid       = "paid"
)

// CommissionRecord is one referral payout line created when a payment
// is approved. The (payment_id, level) unique index makes distribution
// idempotent: a second approval attempt cannot insert a second row for
// the same level.
type CommissionRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PaymentID     uuid.UUID `gorm:"not null;uniqueIndex:uniq_commissions_payment_level" json:"payment_id"`
	BeneficiaryID uuid.UUID `gorm:"not null;index" json:"beneficiary_id"`
	Level         int       `gorm:"not null;uniqueIndex:uniq_commissions_payment_level" json:"level"`

	Rate             float64 `gorm:"type:numeric(5,4);not null" json:"rate"`
	BaseAmount       float64 `gorm:"type:numeric(12,2);not null" json:"base_amount"`
	CommissionAmount float64 `gorm:"type:numeric(12,2);not null" json:"commission_amount"`
	Status           string  `gorm:"size:20;not null;default:'calculated'" json:"status"`

	Beneficiary User `gorm:"foreignkey:BeneficiaryID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
