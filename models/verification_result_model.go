package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	VerificationSourceAuto   = "auto"
	VerificationSourceManual = "manual"

	VerdictAutoApproved = "auto_approved"
	VerdictManualReview = "manual_review"
	VerdictApproved     = "approved"
	VerdictRejected     = "rejected"
)

// VerificationResult is one immutable snapshot of a verification
// attempt. Rows are only ever inserted; re-running verification adds a
// new snapshot instead of touching earlier ones.
type VerificationResult struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PaymentID uuid.UUID `gorm:"not null;index" json:"payment_id"`

	// Checks holds the serialized per-check outcomes, including every
	// check that ran before a short-circuit failure.
	Checks     json.RawMessage `gorm:"type:jsonb" json:"checks"`
	Confidence int             `gorm:"not null" json:"confidence"`
	Verdict    string          `gorm:"size:20;not null" json:"verdict"`
	Reason     string          `gorm:"type:text" json:"reason"`
	Source     string          `gorm:"size:10;not null" json:"source"`

	CreatedAt time.Time `json:"created_at"`
}
