package models

import (
	"time"

	"github.com/google/uuid"
)

// Referral is a directed edge from a referred user up to the user who
// referred them. Each user has at most one referrer; commission
// distribution walks these edges upward, at most three hops.
type Referral struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferrerID     uuid.UUID `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID uuid.UUID `gorm:"not null;unique" json:"referred_user_id"`

	Referrer     User `gorm:"foreignkey:ReferrerID" json:"-"`
	ReferredUser User `gorm:"foreignkey:ReferredUserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
