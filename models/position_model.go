package models

import (
	"time"

	"github.com/google/uuid"
)

// InvestmentPosition is the holding a payment funds. It stays pending
// until the funding payment is approved, at which point the approval
// transaction activates it.
type InvestmentPosition struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"not null;index" json:"user_id"`
	Plan      string    `gorm:"size:50;not null" json:"plan"`
	AmountUSD float64   `gorm:"type:numeric(12,2);not null" json:"amount_usd"`
	Status    string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	ActivatedAt *time.Time `json:"activated_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const (
	PositionStatusPending = "pending"
	PositionStatusActive  = "active"
)
