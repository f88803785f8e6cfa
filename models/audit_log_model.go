package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records who did what to a payment. ActorID is nil for
// actions taken by the automatic verification pipeline.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ActorID   *uuid.UUID `gorm:"index" json:"actor_id"`
	PaymentID *uuid.UUID `gorm:"index" json:"payment_id"`
	Action    string     `gorm:"size:50;not null" json:"action"`
	Details   string     `gorm:"type:text" json:"details"`

	CreatedAt time.Time `json:"created_at"`
}
